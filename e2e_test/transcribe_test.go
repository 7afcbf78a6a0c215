//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jsphweid/musan/cmd"
	"github.com/jsphweid/musan/midi"
	"github.com/jsphweid/musan/model"
	"github.com/jsphweid/musan/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var server *httptest.Server

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "musan-e2e")
	if err != nil {
		panic(err.Error())
	}
	os.Setenv("UPLOAD_PATH", dir)
	os.Setenv("DEFAULT_KEY", "C")

	s, err := cmd.NewServerFromEnv()
	if err != nil {
		panic(err.Error())
	}
	server = httptest.NewServer(s.Router())

	exitVal := m.Run()

	server.Close()
	os.RemoveAll(dir)
	os.Exit(exitVal)
}

func createTranscribeReqBody(k scale.Key, notes ...string) io.Reader {
	data, err := json.Marshal(model.TranscribeRequestBody{Key: &k, Notes: notes})
	if err != nil {
		panic(err.Error())
	}
	return bytes.NewReader(data)
}

func TestTranscribeThenFetchE2E(t *testing.T) {
	resp, err := http.Post(server.URL+"/transcribe", "application/json", createTranscribeReqBody(scale.D, "D4", "F#4", "A4", "C5"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var created model.TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal("do mi so [C]", created.Notation)

	resp, err = http.Get(server.URL + "/transcriptions/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()

	var fetched model.TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(created.ID, fetched.ID)
	assert.Equal(created.Notes, fetched.Notes)
}

func TestUploadMidiE2E(t *testing.T) {
	sc, _ := scale.Build(scale.CFlat)
	s, err := midi.ScaleFile(sc, 4, 120)
	require.NoError(t, err)
	var file bytes.Buffer
	_, err = s.WriteTo(&file)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("notationFile", "cb.mid")
	fw.Write(file.Bytes())
	mw.WriteField("key", "Cb")
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var tr model.TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	assert.Equal("do re mi fa so la ti do", tr.Notation)
	assert.Equal("Fb4", tr.Notes[3].Note)
}
