package audio

import "strings"

// BuildFilterChain composes the enabled filters into a single -af argument
// in the fixed order spec §4.4 requires: silenceRemoval -> normalization
// -> deEss -> eq -> compressor -> fadeIn -> stereoWidth. A disabled filter
// is absent from the chain.
func BuildFilterChain(settings FilterSettings) string {
	var filters []string

	if settings.SilenceRemoval {
		filters = append(filters, "silenceremove=start_periods=1:start_silence=0.1:start_threshold=-50dB")
	}
	if settings.Normalization {
		filters = append(filters, "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	if settings.DeEss {
		filters = append(filters, "adeesser")
	}
	if settings.EQ {
		filters = append(filters, "equalizer=f=3000:t=q:w=1:g=-3")
	}
	if settings.Compressor {
		filters = append(filters, "acompressor=threshold=-18dB:ratio=3:attack=5:release=50")
	}
	if settings.FadeIn {
		filters = append(filters, "afade=t=in:st=0:d=1")
	}
	if settings.StereoWidth {
		filters = append(filters, "extrastereo=m=2.0")
	}

	return strings.Join(filters, ",")
}

// FilterSettings mirrors types.AudioProcessingSettings' toggles; kept as a
// separate, narrower type so the filter-chain builder does not depend on
// the Opus-specific fields.
type FilterSettings struct {
	SilenceRemoval bool
	Normalization  bool
	DeEss          bool
	EQ             bool
	Compressor     bool
	FadeIn         bool
	StereoWidth    bool
}
