package models

import "time"

// Room is a chat room with an attached key ledger.
//
// CurrentKeyVersion is the head of the room's key ledger and only ever
// increases. RotationPending is set when a participant leaves and cleared by
// the next successful rotation; while set, the newest installed key predates
// the departure and remaining clients are expected to rotate.
type Room struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:255" json:"name"`
	IsGroup           bool      `gorm:"not null;default:false" json:"is_group"`
	CurrentKeyVersion int       `gorm:"not null;default:1" json:"current_key_version"`
	RotationPending   bool      `gorm:"not null;default:false" json:"rotation_pending"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Many-to-many relationship with users
	Participants []User `gorm:"many2many:room_participants;" json:"participants,omitempty"`
}

// TableName returns the table name for Room.
func (Room) TableName() string {
	return "rooms"
}

// HasParticipant checks membership against the loaded participant set.
// Participants must have been preloaded.
func (r *Room) HasParticipant(userID uint) bool {
	for _, p := range r.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the ids of the loaded participant set.
func (r *Room) ParticipantIDs() []uint {
	ids := make([]uint, len(r.Participants))
	for i, p := range r.Participants {
		ids[i] = p.ID
	}
	return ids
}

// APIRoom is the wire representation of a room.
type APIRoom struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	IsGroup           bool      `json:"is_group"`
	CurrentKeyVersion int       `json:"current_key_version"`
	RotationPending   bool      `json:"rotation_pending"`
	CreatedAt         string    `json:"created_at"`
	Participants      []APIUser `json:"participants,omitempty"`
}

// ToAPI converts the room to its wire representation. When includeParticipants
// is true the loaded participant set is serialised as full user objects.
func (r *Room) ToAPI(includeParticipants bool) APIRoom {
	out := APIRoom{
		ID:                r.ID,
		Name:              r.Name,
		IsGroup:           r.IsGroup,
		CurrentKeyVersion: r.CurrentKeyVersion,
		RotationPending:   r.RotationPending,
		CreatedAt:         UTCZ(r.CreatedAt),
	}
	if includeParticipants {
		out.Participants = make([]APIUser, len(r.Participants))
		for i, p := range r.Participants {
			out.Participants[i] = p.ToAPI()
		}
	}
	return out
}
