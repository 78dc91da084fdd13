package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/bnema/deltahash-cli/internal/domain"
)

const (
	browserName = "Chrome / Blink"
	deviceType  = "Desktop Workstation"
)

// Generate derives the identity of an account key. It is a pure function of
// the key and the static tables.
func Generate(key domain.AccountID) domain.Identity {
	h := key.Digest()

	bp := blueprints[hexSlice(h, 0, 8)%uint64(len(blueprints))]
	screen := bp.screens[hexSlice(h, 8, 10)%uint64(len(bp.screens))]
	viewport := bp.viewports[hexSlice(h, 10, 12)%uint64(len(bp.viewports))]
	timezone := timezones[hexSlice(h, 12, 14)%uint64(len(timezones))]
	locale := locales[hexSlice(h, 14, 16)%uint64(len(locales))]

	return domain.Identity{
		UserAgent:       bp.userAgent,
		SecChUa:         bp.secChUa,
		Platform:        bp.platform,
		OS:              bp.os,
		Engine:          bp.engine,
		Browser:         browserName,
		DeviceType:      deviceType,
		GPU:             bp.gpu,
		Cores:           bp.cores,
		Memory:          bp.memory,
		ScreenRes:       screen,
		Viewport:        viewport,
		PixelRatio:      bp.pixelRatio,
		ColorDepth:      bp.colorDepth,
		CanvasHash:      digest(h + "canvas")[:32],
		WebGLHash:       digest(h + "webgl")[:32],
		AudioHash:       digest(h + "audio")[:32],
		Locale:          locale.locale,
		Timezone:        timezone,
		PrefLangs:       locale.prefLangs,
		AcceptLanguage:  locale.acceptLanguage,
		Fonts:           bp.fonts,
		WebGLExtensions: bp.webglExt,
		DOMCompleteMs:   80 + int(hexSlice(h, 16, 18)%200),
	}
}

// CacheKey hides the account key, which is usually a session cookie, behind
// its digest.
func CacheKey(key domain.AccountID) domain.AccountID {
	return domain.AccountID(key.Digest())
}

func blueprintIndex(key domain.AccountID) int {
	return int(hexSlice(key.Digest(), 0, 8) % uint64(len(blueprints)))
}

func digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func hexSlice(h string, from, to int) uint64 {
	v, _ := strconv.ParseUint(h[from:to], 16, 64)
	return v
}
