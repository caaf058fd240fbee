package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks malformed command arguments (rename without separator).
	ErrParse = errors.New("parse error")
	// ErrIneligibleTarget marks a command whose target media cannot be used.
	ErrIneligibleTarget = errors.New("ineligible target")
	// ErrDownload marks a media payload that could not be retrieved.
	ErrDownload = errors.New("download error")
	// ErrConversion marks a probe, decode, or encode failure.
	ErrConversion = errors.New("conversion error")
	// ErrOutputMissing marks an encoder that exited cleanly without output.
	ErrOutputMissing = errors.New("output missing")
	// ErrDelivery marks a failed outbound send.
	ErrDelivery = errors.New("delivery error")

	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrIneligibleTarget):
		return "ineligible_target"
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrOutputMissing):
		return "output_missing"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

// Hint returns an operator-facing next step for the error class.
func Hint(err error) string {
	switch Kind(err) {
	case "download":
		return "the platform refused the media download; ask the user to resend"
	case "conversion":
		return "inspect ffmpeg stderr in the error; the source may be corrupt or an unsupported codec"
	case "output_missing":
		return "ffmpeg exited cleanly without output; check the libwebp encoder is available"
	case "delivery":
		return "check bot permissions and platform connectivity"
	case "configuration":
		return "run stickerbot config validate"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
