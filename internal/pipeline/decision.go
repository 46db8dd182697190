package pipeline

import "time"

type Action int

const (
	ActionAllow Action = iota
	ActionDelete
	ActionDeleteAndMute
)

func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionDeleteAndMute:
		return "delete_mute"
	default:
		return "allow"
	}
}

type Reason string

const (
	ReasonNone          Reason = ""
	ReasonSpam          Reason = "spam"
	ReasonForbiddenWord Reason = "forbidden_word"
	ReasonLink          Reason = "link_forbidden"
	ReasonForwarded     Reason = "forward_forbidden"

	// Enforced by the service on platforms that cannot restrict natively.
	ReasonMuted       Reason = "muted"
	ReasonNightClosed Reason = "night_closed"
)

// Decision is the single result of evaluating one message.
type Decision struct {
	Action    Action
	Reason    Reason
	MuteHours int
}

func Allow() Decision {
	return Decision{Action: ActionAllow}
}

func DeleteOnly(reason Reason) Decision {
	return Decision{Action: ActionDelete, Reason: reason}
}

func DeleteAndMute(reason Reason, hours int) Decision {
	return Decision{Action: ActionDeleteAndMute, Reason: reason, MuteHours: hours}
}

func (d Decision) IsAllowed() bool {
	return d.Action == ActionAllow
}

func (d Decision) MuteDuration() time.Duration {
	return time.Duration(d.MuteHours) * time.Hour
}

func reasonFor(v Verdict) Reason {
	switch v {
	case VerdictForbiddenWord:
		return ReasonForbiddenWord
	case VerdictLink:
		return ReasonLink
	case VerdictForwarded:
		return ReasonForwarded
	default:
		return ReasonNone
	}
}
