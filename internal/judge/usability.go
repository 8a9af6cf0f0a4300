package judge

import (
	"strings"

	"mercascan/internal/types"
)

// Usability labels for judged records, used to split a dataset into
// training-ready, partial and unusable slices.
const (
	LabelUsable       = "usables"
	LabelPartlyUsable = "medianamente_usables"
	LabelUnusable     = "para_nada_usables"
)

// blockedMarkers identify pages whose text is a cookie wall or security
// interstitial rather than a product listing.
var blockedMarkers = []string{
	"este sitio web utiliza cookies", "política de cookies", "cloudflare",
	"verificar que usted es un ser humano", "comprobar que eres humano",
	"verificación de seguridad", "captcha", "ray id",
	"access denied", "acceso denegado", "robot check",
	"enable javascript", "habilita javascript",
	"404 not found", "pagina no encontrada", "página no encontrada",
}

// partialSignals are reasons that mark a kept record as only partially
// trustworthy: the judge kept it without a positive category-and-price
// signal of its own.
var partialSignals = []string{
	"no_category_detected", "price_parse_failed", "low_score", "heuristic_default",
}

// UsabilityLabel triages a judged record:
//
//   - unusable: interstitial markers, a discard verdict (or no verdict at
//     all), an unrecognized category, or a non-positive price;
//   - partly usable: kept, but with a partial-signal reason attached;
//   - usable: kept with a recognized category, a positive price and no
//     partial signals.
func UsabilityLabel(rec *types.Record) string {
	text := strings.ToLower(rec.JudgementText())
	for _, marker := range blockedMarkers {
		if strings.Contains(text, marker) {
			return LabelUnusable
		}
	}

	d := rec.Decision
	if d == nil || d.Verdict != types.VerdictKeep {
		return LabelUnusable
	}
	switch d.Category {
	case "", types.CategoryNone, types.CategoryDiscarded:
		return LabelUnusable
	}
	if !rec.HasPrice() {
		return LabelUnusable
	}

	joined := strings.ToLower(strings.Join(d.Reasons, ";"))
	for _, sig := range partialSignals {
		if strings.Contains(joined, sig) {
			return LabelPartlyUsable
		}
	}
	return LabelUsable
}
