package db

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/jsphweid/musan/transcript"
)

var ErrMalformedItem = errors.New("malformed transcript item")

type Store interface {
	Save(t transcript.Transcript) error
	Get(id string) (transcript.Transcript, bool, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]transcript.Transcript
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]transcript.Transcript)}
}

func (m *MemoryStore) Save(t transcript.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.ID] = t
	return nil
}

func (m *MemoryStore) Get(id string) (transcript.Transcript, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.items[id]
	return t, ok, nil
}

type DynamoStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamoStore(client dynamodbiface.DynamoDBAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Connect opens a DynamoDB session. An empty endpoint means the regular AWS
// endpoint for the region.
func Connect(region string, endpoint string, table string) (*DynamoStore, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create a new DynamoDB session: %w", err)
	}
	return NewDynamoStore(dynamodb.New(sess), table), nil
}

func (d *DynamoStore) Save(t transcript.Transcript) error {
	_, err := d.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      toItem(t),
	})
	if err != nil {
		return fmt.Errorf("saving transcript %v: %w", t.ID, err)
	}
	return nil
}

func (d *DynamoStore) Get(id string) (transcript.Transcript, bool, error) {
	out, err := d.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		},
	})
	if err != nil {
		return transcript.Transcript{}, false, fmt.Errorf("loading transcript %v: %w", id, err)
	}
	if len(out.Item) == 0 {
		return transcript.Transcript{}, false, nil
	}
	t, err := fromItem(out.Item)
	if err != nil {
		return transcript.Transcript{}, false, err
	}
	return t, true, nil
}

func toItem(t transcript.Transcript) map[string]*dynamodb.AttributeValue {
	notes := make([]*dynamodb.AttributeValue, len(t.Notes))
	for i, r := range t.Notes {
		notes[i] = &dynamodb.AttributeValue{S: aws.String(r.Spelling.String())}
	}

	item := map[string]*dynamodb.AttributeValue{
		"PK":        {S: aws.String(t.ID)},
		"Key":       {S: aws.String(t.Key.String())},
		"Notation":  {S: aws.String(t.Notation())},
		"Style":     {S: aws.String(t.Style.String())},
		"Notes":     {L: notes},
		"CreatedAt": {N: aws.String(strconv.FormatInt(t.CreatedAt.Unix(), 10))},
	}
	if t.Source != "" {
		item["Source"] = &dynamodb.AttributeValue{S: aws.String(t.Source)}
	}
	return item
}

func str(item map[string]*dynamodb.AttributeValue, name string) (string, error) {
	v, ok := item[name]
	if !ok || v.S == nil {
		return "", fmt.Errorf("%w: missing %v", ErrMalformedItem, name)
	}
	return *v.S, nil
}

// fromItem rebuilds a transcript by mapping the stored spellings again, so a
// stored item always agrees with the current scale tables.
func fromItem(item map[string]*dynamodb.AttributeValue) (transcript.Transcript, error) {
	var t transcript.Transcript

	id, err := str(item, "PK")
	if err != nil {
		return t, err
	}
	keyName, err := str(item, "Key")
	if err != nil {
		return t, err
	}
	k, err := scale.ParseKey(keyName)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}
	styleName, _ := str(item, "Style")
	style, err := solfa.ParseStyle(styleName)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}

	var notes []pitch.NoteSpelling
	if v, ok := item["Notes"]; ok {
		for _, n := range v.L {
			if n.S == nil {
				return t, fmt.Errorf("%w: non-string note", ErrMalformedItem)
			}
			spelling, err := pitch.Parse(*n.S)
			if err != nil {
				return t, fmt.Errorf("%w: %v", ErrMalformedItem, err)
			}
			notes = append(notes, spelling)
		}
	}

	results, err := solfa.Transcribe(notes, k)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}

	t.ID = id
	t.Key = k
	t.Notes = results
	t.Style = style
	t.Source, _ = str(item, "Source")
	if v, ok := item["CreatedAt"]; ok && v.N != nil {
		secs, err := strconv.ParseInt(*v.N, 10, 64)
		if err == nil {
			t.CreatedAt = time.Unix(secs, 0).UTC()
		}
	}
	return t, nil
}
