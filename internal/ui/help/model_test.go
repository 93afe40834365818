package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/crmterm/internal/keys"
)

func TestView_ListsCommandsAndLegend(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 60)
	out := m.View()

	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "client new: create a client")
	assert.Contains(t, out, "R to retry live")
}
