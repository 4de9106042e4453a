package database

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type recordingInvalidator struct {
	mu       sync.Mutex
	services []string
	all      int
}

func (r *recordingInvalidator) InvalidateService(serviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, serviceID)
}

func (r *recordingInvalidator) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all++
}

func (r *recordingInvalidator) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.services...), r.all
}

func TestCatalogListenerHandle(t *testing.T) {
	inv := &recordingInvalidator{}
	l := NewCatalogListener(nil, inv, zerolog.Nop())

	l.handle("svc-clean")
	l.handle(CatalogChangedAll)
	l.handle("")

	services, all := inv.snapshot()
	assert.Equal(t, []string{"svc-clean"}, services)
	assert.Equal(t, 2, all)
}
