package organization

import (
	"strings"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const AggregateTypeActivity = "Activity"

// Activity is an economic activity a channel is registered under.
// Branches are grouped by activity.
type Activity struct {
	shared.ChannelAggregateRoot
	Code string
	Name string
}

// NewActivity creates an activity for a channel
func NewActivity(channelID uuid.UUID, code, name string) (*Activity, error) {
	code = strings.TrimSpace(code)
	if len(code) > 10 || !valueobject.IsDigits(code) {
		return nil, shared.ErrInvalidCode.Withf("activity code %q must be 1-10 digits", code)
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 160 {
		return nil, shared.NewDomainError("INVALID_NAME", "Activity name must be 1-160 characters")
	}

	a := &Activity{
		ChannelAggregateRoot: shared.NewChannelAggregateRoot(channelID),
		Code:                 code,
		Name:                 name,
	}
	a.AddDomainEvent(NewActivityCreatedEvent(a))
	return a, nil
}
