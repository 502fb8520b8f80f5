package build

import (
	"fmt"
	"strings"

	"github.com/vk/fabbuild/internal/validate"
)

// Stage identifies which half of the pipeline a failure belongs to.
type Stage int

const (
	StageStructured Stage = 1
	StageDesigned   Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageStructured:
		return "structured-config"
	case StageDesigned:
		return "designed-config"
	default:
		return fmt.Sprintf("stage-%d", int(s))
	}
}

// Kind classifies a failure within the taxonomy shared by the whole pipeline.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindExecution   Kind = "execution"
	KindPersistence Kind = "persistence"
)

// Failure is the error produced when a per-host build task fails. Validation
// failures carry the ordered issue list; execution and persistence failures
// carry the underlying cause.
type Failure struct {
	Host   string
	Stage  Stage
	Kind   Kind
	Issues []validate.Issue
	Cause  error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed for %s", f.Stage, f.Kind, f.Host)
	if len(f.Issues) > 0 {
		fmt.Fprintf(&b, " (%d issues)", len(f.Issues))
	}
	if f.Cause != nil {
		fmt.Fprintf(&b, ": %v", f.Cause)
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Cause }
