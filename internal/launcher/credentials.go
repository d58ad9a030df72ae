package launcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
)

// Identity is the player identity a launch runs as.
type Identity struct {
	Name        string
	UUID        string
	AccessToken string
	UserType    string
	ClientID    string
	XUID        string
}

// CredentialProvider supplies the identity before a launch is requested.
type CredentialProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

// StaticCredentials returns a fixed identity.
type StaticCredentials Identity

func (c StaticCredentials) Identity(context.Context) (Identity, error) {
	id := Identity(c)
	if id.Name == "" {
		return Identity{}, errors.New("credentials: player name is empty")
	}
	return id, nil
}

// OfflineCredentials derives an offline identity from a player name.
type OfflineCredentials struct{ Name string }

func (c OfflineCredentials) Identity(context.Context) (Identity, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Identity{}, errors.New("credentials: player name is empty")
	}
	return Identity{
		Name:        name,
		UUID:        OfflineUUID(name),
		AccessToken: "0",
		UserType:    "legacy",
	}, nil
}

// OfflineUUID returns the name-based (version 3) UUID the game derives for
// offline players, as 32 hex digits.
func OfflineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return hex.EncodeToString(sum[:])
}

// WithIdentity returns lc with the player fields taken from id.
func WithIdentity(lc LaunchContext, id Identity) LaunchContext {
	lc.PlayerName = id.Name
	lc.PlayerUUID = id.UUID
	lc.AccessToken = id.AccessToken
	lc.UserType = id.UserType
	if id.ClientID != "" {
		lc.ClientID = id.ClientID
	}
	if id.XUID != "" {
		lc.XUID = id.XUID
	}
	return lc
}
