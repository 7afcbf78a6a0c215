package midi

import (
	"fmt"

	"github.com/jsphweid/musan/scale"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 960
	velocity        = 100
	channel         = 0
)

// ScaleFile renders the scale as one ascending track of quarter notes, tonic
// to tonic, starting in the given octave.
func ScaleFile(sc scale.Scale, octave int, bpm float64) (*smf.SMF, error) {
	tonic := sc.Notes[0].WithOctave(octave)
	start, _ := tonic.MIDI()
	if start < 0 || start+12 > 127 {
		return nil, fmt.Errorf("octave %d is out of midi range for %v", octave, sc.Key)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTempo(bpm))

	key := start
	keys := []int{key}
	for _, step := range scaleSteps(sc) {
		key += step
		keys = append(keys, key)
	}

	for _, k := range keys {
		track.Add(0, gomidi.NoteOn(channel, uint8(k), velocity))
		track.Add(ticksPerQuarter, gomidi.NoteOff(channel, uint8(k)))
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("adding scale track: %w", err)
	}
	return s, nil
}

func scaleSteps(sc scale.Scale) []int {
	classes := sc.PitchClasses()
	steps := make([]int, len(classes))
	for i := range classes {
		next := classes[(i+1)%len(classes)]
		steps[i] = (int(next) - int(classes[i]) + 12) % 12
	}
	return steps
}

func WriteScaleFile(path string, sc scale.Scale, octave int, bpm float64) error {
	s, err := ScaleFile(sc, octave, bpm)
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("writing %v: %w", path, err)
	}
	return nil
}
