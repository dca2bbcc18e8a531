package enums

// ActorKind identifies who or what caused a domain event.
type ActorKind string

const (
	ActorPerson    ActorKind = "person"
	ActorAssistant ActorKind = "assistant"
	ActorVoice     ActorKind = "voice"
	ActorSystem    ActorKind = "system"
)

func (a ActorKind) IsValid() bool {
	switch a {
	case ActorPerson, ActorAssistant, ActorVoice, ActorSystem:
		return true
	}
	return false
}

// RecipientKind addresses a realtime push.
type RecipientKind string

const (
	RecipientRestaurant RecipientKind = "restaurant"
	RecipientRole       RecipientKind = "role"
	RecipientUser       RecipientKind = "user"
)
