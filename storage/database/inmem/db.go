package inmemdb

import (
	"strings"
	"sync"

	"github.com/trezcool/wazazi/core/account"
	"github.com/trezcool/wazazi/core/billing"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
)

// DB is a map-backed store for tests and DEV mode. A single lock guards all
// tables so that the payment propagation (insert + two updates) is atomic
// and concurrent propagations for one parent serialize.
type DB struct {
	mu sync.RWMutex

	schools  map[string]*school.School
	classes  map[string]*school.Class
	profiles map[string]*account.UserProfile
	parents  map[string]*family.Parent
	students map[string]*family.Student
	payments map[string]*billing.Payment
}

func Open() (*DB, error) {
	db := &DB{
		schools:  make(map[string]*school.School),
		classes:  make(map[string]*school.Class),
		profiles: make(map[string]*account.UserProfile),
		parents:  make(map[string]*family.Parent),
		students: make(map[string]*family.Student),
		payments: make(map[string]*billing.Payment),
	}
	return db, nil
}

func searchMatch(needle string, haystacks ...string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
