package sources

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/pulse/internal/models"
)

// DefaultTrackerStatusOrder returns the order ticket groups appear in when the
// source does not configure one. Each call returns a fresh slice.
func DefaultTrackerStatusOrder() []string {
	return []string{"In Progress", "To Do", "Done"}
}

// DefaultMaxComments is how many of the latest comments are kept per ticket.
const DefaultMaxComments = 2

// TrackerOptions configures the tracker normalizer.
type TrackerOptions struct {
	StatusOrder []string `mapstructure:"status_order"`
	MaxComments int      `mapstructure:"max_comments"`
}

func (o TrackerOptions) withDefaults() TrackerOptions {
	if len(o.StatusOrder) == 0 {
		o.StatusOrder = DefaultTrackerStatusOrder()
	}
	if o.MaxComments == 0 {
		o.MaxComments = DefaultMaxComments
	}
	return o
}

// ChatOptions configures the chat normalizer. MaxReplies of zero keeps all replies.
type ChatOptions struct {
	MaxReplies int `mapstructure:"max_replies"`
}

// TableOptions configures the csv normalizer. MaxRecords of zero keeps all rows.
type TableOptions struct {
	DisplayName string `mapstructure:"display_name"`
	MaxRecords  int    `mapstructure:"max_records"`
}

// ValidateOptions decodes desc.Options for its kind and reports any problem,
// so configuration mistakes surface before ingestion starts.
func ValidateOptions(desc models.SourceDescriptor) error {
	var target any
	switch desc.Kind {
	case models.SourceKindNotes:
		if len(desc.Options) > 0 {
			return fmt.Errorf("notes sources take no options")
		}
		return nil
	case models.SourceKindTracker:
		target = &TrackerOptions{}
	case models.SourceKindChat:
		target = &ChatOptions{}
	case models.SourceKindCSV:
		target = &TableOptions{}
	default:
		return fmt.Errorf("unsupported source kind %q", desc.Kind)
	}
	return decodeOptions(desc.Options, target)
}

func decodeOptions(options map[string]any, target any) error {
	if len(options) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
