package users

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/friendschat/chatroom/internal/auth"
	"github.com/friendschat/chatroom/internal/common"
)

// User is one entry of the static login table. There is no registration or
// identity lifecycle; the table is fixed at startup.
type User struct {
	LoginKey     string `json:"login"`
	Name         string `json:"name"`
	Password     string `json:"password"` // plaintext in the seed file only
	PasswordHash string `json:"-"`
	MFASecret    string `json:"mfa_secret"`
	MFAEnabled   bool   `json:"mfa_enabled"`
}

// Directory is a read-only lookup over the user table. It is never mutated
// after construction, so no lock is needed.
type Directory struct {
	byLogin map[string]User
	order   []string
}

func newDirectory(list []User) (*Directory, error) {
	d := &Directory{byLogin: make(map[string]User, len(list))}
	for _, u := range list {
		if u.LoginKey == "" || u.Name == "" {
			return nil, fmt.Errorf("users: entry missing login or name")
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("users: hash password for %s: %w", u.LoginKey, err)
		}
		u.PasswordHash = hash
		u.Password = ""
		d.byLogin[u.LoginKey] = u
		d.order = append(d.order, u.LoginKey)
	}
	return d, nil
}

// SeedDemo builds the hardcoded friends table.
func SeedDemo() (*Directory, error) {
	return newDirectory([]User{
		{LoginKey: "vamsi.krishna@example.com", Name: "Vamsi Krishna", Password: "Vamsi@143", MFASecret: "123456", MFAEnabled: true},
		{LoginKey: "Saiprakash", Name: "Sai Prakash", Password: "Sai@123", MFASecret: "123456", MFAEnabled: true},
		{LoginKey: "Danarao", Name: "Dana Rao", Password: "Dana@123", MFASecret: "123456", MFAEnabled: true},
	})
}

// LoadFile reads a JSON array of users, overriding the demo table.
func LoadFile(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []User
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("users: parse %s: %w", path, err)
	}
	return newDirectory(list)
}

func (d *Directory) Lookup(loginKey string) (User, bool) {
	u, ok := d.byLogin[loginKey]
	return u, ok
}

// Authenticate distinguishes unknown users from bad passwords so the login
// handler can keep the two legacy error messages apart.
func (d *Directory) Authenticate(loginKey, password string) (User, error) {
	u, ok := d.byLogin[loginKey]
	if !ok {
		return User{}, common.ErrNotFound
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, common.ErrUnauthorized
	}
	return u, nil
}

// LoginKeys returns every known login key in table order. Used to seed the
// default channel membership.
func (d *Directory) LoginKeys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}
