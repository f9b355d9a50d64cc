// ABOUTME: TOML seed files that pre-populate the store with a known world
// ABOUTME: Lets client test suites start from deterministic users, rooms, and tags

package fixtures

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/store"
)

// Seed describes the initial world for a test run.
type Seed struct {
	Users []UserSeed `toml:"users"`
	Rooms []RoomSeed `toml:"rooms"`
	Tags  []TagSeed  `toml:"tags"`
}

// UserSeed registers one account.
type UserSeed struct {
	ID          string `toml:"id"`
	Password    string `toml:"password"`
	DisplayName string `toml:"display_name"`
	AvatarURL   string `toml:"avatar_url"`
}

// RoomSeed creates one room with its aliases and joined members.
type RoomSeed struct {
	ID      string   `toml:"id"`
	Creator string   `toml:"creator"`
	Version string   `toml:"version"`
	Public  bool     `toml:"public"`
	Name    string   `toml:"name"`
	Topic   string   `toml:"topic"`
	Aliases []string `toml:"aliases"`
	Members []string `toml:"members"`
}

// TagSeed puts one tag on a room for a user.
type TagSeed struct {
	User  string   `toml:"user"`
	Room  string   `toml:"room"`
	Name  string   `toml:"name"`
	Order *float64 `toml:"order"`
}

// Load parses a seed file.
func Load(path string) (*Seed, error) {
	var seed Seed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, fmt.Errorf("parsing fixture file: %w", err)
	}
	return &seed, nil
}

// Apply populates the store from the seed. Users are created first so room
// creators and members can be checked against them; rooms get a state
// snapshot, joined memberships, and published aliases. Rooms without a
// version use defaultRoomVersion.
func Apply(st *store.Store, seed *Seed, defaultRoomVersion string) error {
	for _, u := range seed.Users {
		if u.ID == "" {
			return fmt.Errorf("fixture user with empty id")
		}
		user, err := st.Users.Create(id.UserID(u.ID), u.Password)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
		user.DisplayName = u.DisplayName
		user.AvatarURL = u.AvatarURL
	}

	for _, r := range seed.Rooms {
		if err := applyRoom(st, r, defaultRoomVersion); err != nil {
			return err
		}
	}

	for _, tg := range seed.Tags {
		if _, err := st.Users.Get(id.UserID(tg.User)); err != nil {
			return fmt.Errorf("fixture tag references unknown user %s", tg.User)
		}
		st.Tags.Put(id.UserID(tg.User), id.RoomID(tg.Room), tg.Name, tg.Order)
	}

	return nil
}

func applyRoom(st *store.Store, r RoomSeed, defaultVersion string) error {
	if r.ID == "" {
		return fmt.Errorf("fixture room with empty id")
	}
	creator := id.UserID(r.Creator)
	if _, err := st.Users.Get(creator); err != nil {
		return fmt.Errorf("fixture room %s references unknown creator %s", r.ID, r.Creator)
	}

	version := r.Version
	if version == "" {
		version = defaultVersion
	}

	roomID := id.RoomID(r.ID)
	room := st.Rooms.Create(roomID, creator, version, r.Public)
	room.Name = r.Name
	room.Topic = r.Topic

	entries := []*store.StateEntry{{
		Type:    "m.room.create",
		Sender:  creator,
		Content: json.RawMessage(fmt.Sprintf(`{"creator":%q,"room_version":%q}`, creator, version)),
	}}
	if r.Name != "" {
		content, _ := json.Marshal(map[string]string{"name": r.Name})
		entries = append(entries, &store.StateEntry{Type: "m.room.name", Sender: creator, Content: content})
	}
	if r.Topic != "" {
		content, _ := json.Marshal(map[string]string{"topic": r.Topic})
		entries = append(entries, &store.StateEntry{Type: "m.room.topic", Sender: creator, Content: content})
	}

	members := r.Members
	if len(members) == 0 {
		members = []string{r.Creator}
	}
	for _, m := range members {
		member := id.UserID(m)
		if _, err := st.Users.Get(member); err != nil {
			return fmt.Errorf("fixture room %s references unknown member %s", r.ID, m)
		}
		st.Memberships.Put(roomID, member, event.MembershipJoin)
		entries = append(entries, &store.StateEntry{
			Type:     "m.room.member",
			StateKey: m,
			Sender:   member,
			Content:  json.RawMessage(`{"membership":"join"}`),
		})
	}
	st.State.Create(roomID, entries)

	for _, alias := range r.Aliases {
		st.Aliases.Create(roomID, id.RoomAlias(alias), creator)
	}
	return nil
}
