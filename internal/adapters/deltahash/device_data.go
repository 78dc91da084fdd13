package deltahash

import (
	"fmt"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
)

const perfJitterSpan = 40

// DeviceData is the browser description sent with every bind call.
type DeviceData struct {
	Browser        string `json:"browser"`
	OS             string `json:"os"`
	UserAgent      string `json:"userAgent"`
	Platform       string `json:"platform"`
	Engine         string `json:"engine"`
	DeviceType     string `json:"deviceType"`
	ScreenRes      string `json:"screenRes"`
	Viewport       string `json:"viewport"`
	PixelRatio     int    `json:"pixelRatio"`
	ColorDepth     string `json:"colorDepth"`
	Locale         string `json:"locale"`
	Timezone       string `json:"timezone"`
	CanvasHash     string `json:"canvasHash"`
	WebGLHash      string `json:"webglHash"`
	GPU            string `json:"gpu"`
	AudioHash      string `json:"audioHash"`
	Cores          int    `json:"cores"`
	Memory         string `json:"memory"`
	Fonts          string `json:"fonts"`
	Codecs         string `json:"codecs"`
	Quirks         string `json:"quirks"`
	Extensions     string `json:"extensions"`
	PerfTiming     string `json:"perfTiming"`
	Language       string `json:"language"`
	PrefLangs      string `json:"prefLangs"`
	DateFormat     string `json:"dateFormat"`
	Cookies        string `json:"cookies"`
	LocalStorage   string `json:"localStorage"`
	SessionStorage string `json:"sessionStorage"`
	IndexedDB      string `json:"indexedDb"`
	DoNotTrack     string `json:"doNotTrack"`
	Touch          string `json:"touch"`
	Pointer        string `json:"pointer"`
	WebGL          string `json:"webgl"`
}

// BuildDeviceData renders identity for one bind call. The DOM timing moves by
// up to 20ms around the identity's baseline and the date is taken from now.
func BuildDeviceData(identity domain.Identity, now time.Time, random ports.Random) DeviceData {
	jitter := int(random.Float64()*perfJitterSpan) - perfJitterSpan/2

	return DeviceData{
		Browser:        identity.Browser,
		OS:             identity.OS,
		UserAgent:      identity.UserAgent,
		Platform:       "Desktop",
		Engine:         identity.Engine,
		DeviceType:     identity.DeviceType,
		ScreenRes:      identity.ScreenRes,
		Viewport:       identity.Viewport,
		PixelRatio:     identity.PixelRatio,
		ColorDepth:     identity.ColorDepth,
		Locale:         identity.Locale,
		Timezone:       identity.Timezone,
		CanvasHash:     identity.CanvasHash,
		WebGLHash:      identity.WebGLHash,
		GPU:            identity.GPU,
		AudioHash:      identity.AudioHash,
		Cores:          identity.Cores,
		Memory:         identity.Memory,
		Fonts:          identity.Fonts,
		Codecs:         "H.264, VP9, AV1, AAC, MP3, Opus",
		Quirks:         "Gecko-like, WebKit-prefixed",
		Extensions:     identity.WebGLExtensions,
		PerfTiming:     fmt.Sprintf("Navigation Start: 0ms, DOM Complete: %dms", identity.DOMCompleteMs+jitter),
		Language:       identity.Locale,
		PrefLangs:      identity.PrefLangs,
		DateFormat:     now.Format("02/01/2006"),
		Cookies:        "Enabled",
		LocalStorage:   "Available",
		SessionStorage: "Available",
		IndexedDB:      "Available",
		DoNotTrack:     "Unspecified",
		Touch:          "None",
		Pointer:        "Mouse/Trackpad",
		WebGL:          "WebGL 2.0 Supported",
	}
}
