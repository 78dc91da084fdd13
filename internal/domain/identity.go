package domain

// Identity is the synthetic client profile presented by one account. It is
// derived once from the account key and never regenerated.
type Identity struct {
	UserAgent       string `json:"userAgent"`
	SecChUa         string `json:"secChUa"`
	Platform        string `json:"platform"`
	OS              string `json:"os"`
	Engine          string `json:"engine"`
	Browser         string `json:"browser"`
	DeviceType      string `json:"deviceType"`
	GPU             string `json:"gpu"`
	Cores           int    `json:"cores"`
	Memory          string `json:"memory"`
	ScreenRes       string `json:"screenRes"`
	Viewport        string `json:"viewport"`
	PixelRatio      int    `json:"pixelRatio"`
	ColorDepth      string `json:"colorDepth"`
	CanvasHash      string `json:"canvasHash"`
	WebGLHash       string `json:"webglHash"`
	AudioHash       string `json:"audioHash"`
	Locale          string `json:"locale"`
	Timezone        string `json:"timezone"`
	PrefLangs       string `json:"prefLangs"`
	AcceptLanguage  string `json:"acceptLanguage"`
	Fonts           string `json:"fonts"`
	WebGLExtensions string `json:"webglExtensions"`
	DOMCompleteMs   int    `json:"domCompleteMs"`
}
