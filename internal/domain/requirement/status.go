package requirement

import "fmt"

// Kind is the tag of a Status.
type Kind int

const (
	KindSatisfied Kind = iota
	KindSystemOnly
	KindInactive
	KindServiceDown
	KindMissing
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindSatisfied:
		return "satisfied"
	case KindSystemOnly:
		return "system-only"
	case KindInactive:
		return "inactive"
	case KindServiceDown:
		return "service-down"
	case KindMissing:
		return "missing"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is the closed set of outcomes of evaluating a requirement. Only
// the types in this file implement it.
type Status interface {
	Kind() Kind
	sealed()
}

// Satisfied means the requirement is usable as is.
type Satisfied struct{}

// SystemOnly means the tool works but is not managed by a version manager.
type SystemOnly struct {
	Path            string
	InstallTemplate string
	Warning         string
}

// Inactive means the tool is installed through a manager that the current
// shell has not activated.
type Inactive struct {
	Manager        string
	BinaryPath     string
	ActivationHint string
}

// ServiceDown means a reachability check failed.
type ServiceDown struct {
	BinaryPresent bool
	// StartCommand is empty when no automatic start is known.
	StartCommand string
	StartHint    string
}

// Missing means nothing usable was found. An empty InstallTemplate means
// there is no automatic install path.
type Missing struct {
	InstallTemplate string
	InstallHint     string
	InstallCommand  string
}

// Unknown means the name is not registered, which is a configuration defect.
type Unknown struct{}

func (Satisfied) Kind() Kind   { return KindSatisfied }
func (SystemOnly) Kind() Kind  { return KindSystemOnly }
func (Inactive) Kind() Kind    { return KindInactive }
func (ServiceDown) Kind() Kind { return KindServiceDown }
func (Missing) Kind() Kind     { return KindMissing }
func (Unknown) Kind() Kind     { return KindUnknown }

func (Satisfied) sealed()   {}
func (SystemOnly) sealed()  {}
func (Inactive) sealed()    {}
func (ServiceDown) sealed() {}
func (Missing) sealed()     {}
func (Unknown) sealed()     {}

// IsSatisfied reports whether s needs no attention at all.
func IsSatisfied(s Status) bool {
	return s != nil && s.Kind() == KindSatisfied
}

// CanProceed reports whether a step may run with this status. SystemOnly
// proceeds with a warning.
func CanProceed(s Status) bool {
	if s == nil {
		return false
	}
	return s.Kind() == KindSatisfied || s.Kind() == KindSystemOnly
}

// Describe returns a one-line human summary of s.
func Describe(s Status) string {
	switch st := s.(type) {
	case Satisfied:
		return "satisfied"
	case SystemOnly:
		return "system install at " + st.Path
	case Inactive:
		return fmt.Sprintf("installed via %s but not activated", st.Manager)
	case ServiceDown:
		if st.BinaryPresent {
			return "installed but not running"
		}
		return "service not reachable"
	case Missing:
		return "not found"
	case Unknown:
		return "unknown requirement"
	default:
		return "no status"
	}
}

// Gap is a requirement that is not satisfied for a step.
type Gap struct {
	Requirement string
	Status      Status
}
