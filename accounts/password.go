package accounts

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when the username is unknown so a failed
// login costs the same either way.
func (a *AccountsModule) dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = hashPassword("travelblog-dummy-password", a.bcryptCost)
	})
	return dummy
}
