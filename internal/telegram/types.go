package telegram

import (
	"time"
)

// EntityKind discriminates what a monitored identifier resolved to.
type EntityKind string

// Entity kinds. Broadcast channels support the difference protocol; chats,
// supergroups and migrated groups are polled by max id; forbidden entities are
// skipped for the pass.
const (
	KindBroadcast EntityKind = "BROADCAST"
	KindChat      EntityKind = "CHAT"
	KindForbidden EntityKind = "FORBIDDEN"
)

// Entity is a resolved Telegram entity. Only the fields valid for the kind are
// set: AccessHash is zero for basic chats, Megagroup is meaningful only for
// KindChat entities backed by a channel.
type Entity struct {
	Kind       EntityKind
	ID         int64
	AccessHash int64
	Megagroup  bool
	Title      string
}

// Message is a single text message observed in an entity.
type Message struct {
	ID   int64
	Text string
	Date time.Time
}

// DifferenceKind classifies the provider's answer to a difference request.
type DifferenceKind int

// Difference response kinds.
const (
	DifferenceEmpty   DifferenceKind = iota // state is current, no new data
	DifferenceNew                           // new messages with an advanced pts
	DifferenceTooLong                       // stored pts is too stale to resume
)

// Difference is the classified result of updates.getChannelDifference.
// Pts and Messages are set only for DifferenceNew.
type Difference struct {
	Kind     DifferenceKind
	Pts      int64
	Messages []Message
}

// JoinOutcome enumerates what happened on a join or invite-import attempt.
type JoinOutcome int

// Join outcomes.
const (
	JoinOK JoinOutcome = iota
	JoinAlreadyMember
	JoinInviteExpired
	JoinPrivate
	JoinOtherFailure
)

// String implements fmt.Stringer for log fields.
func (o JoinOutcome) String() string {
	switch o {
	case JoinOK:
		return "joined"
	case JoinAlreadyMember:
		return "already_member"
	case JoinInviteExpired:
		return "invite_expired"
	case JoinPrivate:
		return "private"
	default:
		return "other_failure"
	}
}

// InviteStatus classifies messages.checkChatInvite answers.
type InviteStatus int

// Invite statuses. InviteResolvable carries the permanent identifier the
// caller should adopt; the other two signal the entity cannot be kept.
const (
	InviteResolvable InviteStatus = iota
	InviteAlreadyMember
	InviteExpired
)

// InviteCheck is the classified result of a checkChatInvite call.
// Identifier is the marked numeric identifier of the invited entity, set only
// for InviteResolvable.
type InviteCheck struct {
	Status     InviteStatus
	Identifier string
}
