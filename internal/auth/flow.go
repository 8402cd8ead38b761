package auth

// Step is a stage of the one-time-code sign-in flow
type Step string

const (
	StepEmail   Step = "email"
	StepCode    Step = "code"
	StepProfile Step = "profile"
	StepDone    Step = "done"
)

// Mode selects the signup or login variant of the flow
type Mode string

const (
	ModeSignup Mode = "signup"
	ModeLogin  Mode = "login"
)

// ModeFor maps the should_create_user flag onto a flow mode
func ModeFor(shouldCreateUser bool) Mode {
	if shouldCreateUser {
		return ModeSignup
	}
	return ModeLogin
}

// Flow is the client-visible state of a sign-in: signup runs
// email -> code -> profile -> done, login runs email <-> code -> done.
type Flow struct {
	Mode Mode `json:"mode"`
	Step Step `json:"step"`
}

// CodeSent is the flow after a code was requested
func (f Flow) CodeSent() Flow {
	return Flow{Mode: f.Mode, Step: StepCode}
}

// Back returns a login flow at the code step to email entry, used once
// its code can no longer be verified
func (f Flow) Back() Flow {
	if f.Mode == ModeLogin && f.Step == StepCode {
		return Flow{Mode: f.Mode, Step: StepEmail}
	}
	return f
}

// Verified is the flow after a code was accepted. Signups without a profile
// name continue to the profile step.
func (f Flow) Verified(profileComplete bool) Flow {
	if f.Mode == ModeSignup && !profileComplete {
		return Flow{Mode: f.Mode, Step: StepProfile}
	}
	return Flow{Mode: f.Mode, Step: StepDone}
}
