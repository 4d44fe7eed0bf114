package rendition

import "fmt"

// AudioOverheadBps is added to a variant's video bitrate to advertise its bandwidth.
const AudioOverheadBps = 128000

// QualityProfile is one rung of the encoding ladder.
type QualityProfile struct {
	Name             string
	Width            int
	Height           int
	VideoBitrateKbps int
	AudioBitrateKbps int
}

// Resolution returns the WIDTHxHEIGHT label.
func (q QualityProfile) Resolution() string {
	return fmt.Sprintf("%dx%d", q.Width, q.Height)
}

// Bandwidth returns the advertised variant bandwidth in bits per second.
func (q QualityProfile) Bandwidth() int {
	return q.VideoBitrateKbps*1000 + AudioOverheadBps
}

// DefaultLadder is encoded in this order for every job.
var DefaultLadder = []QualityProfile{
	{Name: "480p", Width: 854, Height: 480, VideoBitrateKbps: 1000, AudioBitrateKbps: 96},
	{Name: "720p", Width: 1280, Height: 720, VideoBitrateKbps: 2500, AudioBitrateKbps: 128},
	{Name: "1080p", Width: 1920, Height: 1080, VideoBitrateKbps: 4000, AudioBitrateKbps: 192},
}

// FallbackOrder is tried when no explicit quality is requested or it is missing.
var FallbackOrder = []string{"720p", "480p", "1080p"}

// Names returns the quality names of a ladder in order.
func Names(ladder []QualityProfile) []string {
	names := make([]string, len(ladder))
	for i, q := range ladder {
		names[i] = q.Name
	}
	return names
}

// Find returns the profile with the given name.
func Find(ladder []QualityProfile, name string) (QualityProfile, bool) {
	for _, q := range ladder {
		if q.Name == name {
			return q, true
		}
	}
	return QualityProfile{}, false
}
