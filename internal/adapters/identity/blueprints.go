package identity

type blueprint struct {
	userAgent  string
	secChUa    string
	platform   string
	os         string
	engine     string
	gpu        string
	screens    []string
	viewports  []string
	cores      int
	memory     string
	pixelRatio int
	colorDepth string
	fonts      string
	webglExt   string
}

type localeEntry struct {
	locale         string
	prefLangs      string
	acceptLanguage string
}

// Static attribute tables. Entries may repeat to weight the selection.
var blueprints = []blueprint{
	{
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36",
		secChUa:    `"Not(A:Brand";v="8", "Chromium";v="144", "Google Chrome";v="144"`,
		platform:   "Windows",
		os:         "Win32",
		engine:     "V8 14.4.83",
		gpu:        "ANGLE (Intel, Intel(R) Iris(R) Xe Graphics Direct3D11 vs_5_0 ps_5_0, D3D11)",
		screens:    []string{"1920x1080", "2560x1440"},
		viewports:  []string{"1920x937", "1903x937", "2560x1317"},
		cores:      8,
		memory:     "8GB",
		pixelRatio: 1,
		colorDepth: "24-bit",
		fonts:      "Inter, Arial, Helvetica, Times New Roman, Courier New, Segoe UI, Tahoma, Verdana, Calibri",
		webglExt:   "ANGLE, EXT_texture_filter_anisotropic, OES_standard_derivatives, WEBGL_lose_context",
	},
	{
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
		secChUa:    `"Not(A:Brand";v="8", "Chromium";v="143", "Google Chrome";v="143"`,
		platform:   "Windows",
		os:         "Win32",
		engine:     "V8 14.3.56",
		gpu:        "ANGLE (NVIDIA, NVIDIA GeForce GTX 1650 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		screens:    []string{"1920x1080", "1366x768"},
		viewports:  []string{"1920x937", "1903x969", "1366x625"},
		cores:      6,
		memory:     "16GB",
		pixelRatio: 1,
		colorDepth: "24-bit",
		fonts:      "Inter, Arial, Helvetica, Times New Roman, Courier New, Segoe UI, Tahoma, Georgia, Impact",
		webglExt:   "ANGLE, EXT_texture_filter_anisotropic, OES_standard_derivatives, WEBGL_lose_context, EXT_blend_minmax",
	},
	{
		userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36",
		secChUa:    `"Not(A:Brand";v="8", "Chromium";v="144", "Google Chrome";v="144"`,
		platform:   "macOS",
		os:         "MacIntel",
		engine:     "V8 14.4.83",
		gpu:        "ANGLE (Apple, ANGLE Metal Renderer: Apple M2, Unspecified Version)",
		screens:    []string{"2560x1600", "2880x1800"},
		viewports:  []string{"1440x789", "1512x857"},
		cores:      8,
		memory:     "8GB",
		pixelRatio: 2,
		colorDepth: "30-bit",
		fonts:      "Inter, Arial, Helvetica, Times New Roman, Courier New, Helvetica Neue, Menlo, Monaco",
		webglExt:   "ANGLE, EXT_texture_filter_anisotropic, OES_standard_derivatives, WEBGL_lose_context, EXT_color_buffer_float",
	},
	{
		userAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
		secChUa:    `"Not(A:Brand";v="8", "Chromium";v="143", "Google Chrome";v="143"`,
		platform:   "Linux",
		os:         "Linux x86_64",
		engine:     "V8 14.3.56",
		gpu:        "ANGLE (AMD, AMD Radeon RX 6600 (radeonsi navi23 LLVM 17.0.6), OpenGL 4.6)",
		screens:    []string{"1920x1080", "2560x1440"},
		viewports:  []string{"1920x975", "2560x1335"},
		cores:      12,
		memory:     "32GB",
		pixelRatio: 1,
		colorDepth: "24-bit",
		fonts:      "Inter, Arial, Helvetica, DejaVu Sans, Liberation Sans, Noto Sans, Ubuntu",
		webglExt:   "ANGLE, EXT_texture_filter_anisotropic, OES_standard_derivatives, WEBGL_lose_context, OES_element_index_uint",
	},
}

var timezones = []string{
	"Asia/Jakarta",
	"Asia/Jakarta",
	"Asia/Makassar",
	"Asia/Singapore",
	"America/New_York",
	"Europe/London",
	"Asia/Tokyo",
	"Australia/Sydney",
}

var locales = []localeEntry{
	{locale: "en-US", prefLangs: "en-US, en, id", acceptLanguage: "en-US,en;q=0.9,id;q=0.8"},
	{locale: "en-US", prefLangs: "en-US, en", acceptLanguage: "en-US,en;q=0.9"},
	{locale: "en-GB", prefLangs: "en-GB, en", acceptLanguage: "en-GB,en;q=0.9,en-US;q=0.8"},
	{locale: "id-ID", prefLangs: "id-ID, id, en", acceptLanguage: "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7"},
}
