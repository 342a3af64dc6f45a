package model

import "fmt"

// DocStatus is the lifecycle status of a document.
type DocStatus string

const (
	StatusInbox        DocStatus = "INBOX"
	StatusRegistered   DocStatus = "REGISTERED"
	StatusClassified   DocStatus = "CLASSIFIED"
	StatusQualified    DocStatus = "QUALIFIED"
	StatusExhibitReady DocStatus = "EXHIBIT_READY"
	StatusFiled        DocStatus = "FILED"
	StatusFrozen       DocStatus = "FROZEN"
	StatusArchived     DocStatus = "ARCHIVED"
	StatusDuplicate    DocStatus = "DUPLICATE"
	StatusDisputed     DocStatus = "DISPUTED"
	StatusRedacted     DocStatus = "REDACTED"
	StatusError        DocStatus = "ERROR"
)

// InitialStatus is the only status a newly ingested document may carry.
const InitialStatus = StatusInbox

// AllStatuses lists every status in table order.
var AllStatuses = []DocStatus{
	StatusInbox, StatusRegistered, StatusClassified, StatusQualified, StatusExhibitReady, StatusFiled,
	StatusFrozen, StatusArchived, StatusDuplicate, StatusDisputed, StatusRedacted, StatusError,
}

// NextStatuses returns the statuses reachable from s in one transition.
// It panics on a status outside the enumeration; callers validate input with Valid first.
func NextStatuses(s DocStatus) []DocStatus {
	switch s {
	case StatusInbox:
		return []DocStatus{StatusRegistered, StatusDuplicate, StatusError, StatusDisputed}
	case StatusRegistered:
		return []DocStatus{StatusClassified, StatusDuplicate, StatusError, StatusDisputed}
	case StatusClassified:
		return []DocStatus{StatusQualified, StatusRedacted, StatusError, StatusDisputed}
	case StatusQualified:
		return []DocStatus{StatusExhibitReady, StatusError, StatusDisputed}
	case StatusExhibitReady:
		return []DocStatus{StatusFiled, StatusError, StatusDisputed}
	case StatusFiled:
		return []DocStatus{StatusFrozen, StatusError, StatusDisputed}
	case StatusFrozen:
		return []DocStatus{StatusArchived, StatusError, StatusDisputed}
	case StatusArchived:
		return nil
	case StatusDuplicate:
		return []DocStatus{StatusArchived, StatusError}
	case StatusDisputed:
		return []DocStatus{StatusClassified, StatusError, StatusArchived}
	case StatusRedacted:
		return []DocStatus{StatusQualified, StatusError}
	case StatusError:
		return []DocStatus{StatusInbox, StatusArchived}
	default:
		panic(fmt.Sprintf("model: unhandled document status %q", string(s)))
	}
}

// Valid reports whether s belongs to the status enumeration.
func (s DocStatus) Valid() bool {
	switch s {
	case StatusInbox, StatusRegistered, StatusClassified, StatusQualified, StatusExhibitReady, StatusFiled,
		StatusFrozen, StatusArchived, StatusDuplicate, StatusDisputed, StatusRedacted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s DocStatus) Terminal() bool {
	return s.Valid() && len(NextStatuses(s)) == 0
}

// CanTransition reports whether from -> to is an edge of the transition table.
func CanTransition(from, to DocStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	for _, next := range NextStatuses(from) {
		if next == to {
			return true
		}
	}
	return false
}
