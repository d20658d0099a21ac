// Package confirm decides whether a batch may be moved to the trash,
// asking the user when the batch size calls for it.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"trash/internal/logging"
)

// DefaultBulkThreshold is the largest batch that needs only one prompt
const DefaultBulkThreshold = 150

// Keyword must be typed verbatim at both prompts of the double confirmation
const Keyword = "confirm"

// Tier is the confirmation level chosen for a request
type Tier string

const (
	TierForced Tier = "forced" // --force, no prompt
	TierSingle Tier = "single" // one item, no prompt
	TierPrompt Tier = "prompt" // one y/N prompt
	TierDouble Tier = "double" // two typed-keyword prompts
)

// Request is the input to a confirmation decision
type Request struct {
	Count int
	Force bool
}

// Recorder receives every decision, typically for metrics
type Recorder interface {
	RecordConfirmation(tier string, approved bool)
}

// Policy runs the tiered confirmation dialogue over a text console
type Policy struct {
	in            *bufio.Reader
	out           io.Writer
	bulkThreshold int
	recorder      Recorder
	logger        zerolog.Logger
}

// Option configures a Policy
type Option func(*Policy)

// WithBulkThreshold overrides the single-prompt ceiling
func WithBulkThreshold(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.bulkThreshold = n
		}
	}
}

// WithRecorder reports each decision to r
func WithRecorder(r Recorder) Option {
	return func(p *Policy) {
		p.recorder = r
	}
}

// New creates a Policy reading answers from in and writing prompts to out
func New(in io.Reader, out io.Writer, opts ...Option) *Policy {
	p := &Policy{
		in:            bufio.NewReader(in),
		out:           out,
		bulkThreshold: DefaultBulkThreshold,
		logger:        logging.For("confirm"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TierFor returns the tier used for count and force
func TierFor(count int, force bool, bulkThreshold int) Tier {
	switch {
	case force:
		return TierForced
	case count <= 1:
		return TierSingle
	case count <= bulkThreshold:
		return TierPrompt
	default:
		return TierDouble
	}
}

// Tier returns the tier this policy uses for count and force
func (p *Policy) Tier(count int, force bool) Tier {
	return TierFor(count, force, p.bulkThreshold)
}

// Confirm decides whether count items may be trashed.
// Forced and single-item requests never touch the console.
func (p *Policy) Confirm(count int, force bool) bool {
	tier := p.Tier(count, force)

	var approved bool
	switch tier {
	case TierForced, TierSingle:
		approved = true
	case TierPrompt:
		approved = p.promptOnce(count)
	case TierDouble:
		approved = p.promptTwice(count)
	}

	p.logger.Info().
		Int("count", count).
		Bool("force", force).
		Str("tier", string(tier)).
		Bool("approved", approved).
		Msg("Confirmation decided")

	if p.recorder != nil {
		p.recorder.RecordConfirmation(string(tier), approved)
	}
	return approved
}

func (p *Policy) promptOnce(count int) bool {
	fmt.Fprintf(p.out, "Move %d items to the trash? [y/N] ", count)
	answer := strings.ToLower(p.readLine())
	return answer == "y" || answer == "yes"
}

func (p *Policy) promptTwice(count int) bool {
	fmt.Fprintf(p.out, "Warning: you are about to move %d items to the trash (a large batch).\n", count)

	fmt.Fprintf(p.out, "First confirmation: type '%s' to continue: ", Keyword)
	if p.readLine() != Keyword {
		fmt.Fprintln(p.out, "Operation cancelled.")
		return false
	}

	fmt.Fprintf(p.out, "Second confirmation: type '%s' again to move the items to the trash: ", Keyword)
	if p.readLine() != Keyword {
		fmt.Fprintln(p.out, "Operation cancelled.")
		return false
	}
	return true
}

// readLine reads one line without its terminator.
// EOF or a read error reads as an empty answer, which every prompt treats as "no".
func (p *Policy) readLine() string {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		p.logger.Warn().Err(err).Msg("Failed to read confirmation input")
		return ""
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
