package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zoomScript = `
function validate(attrs)
  if attrs.zoom == nil then
    return "zoom is required"
  end
  if attrs.zoom > 20 then
    return "zoom out of range"
  end
  if attrs.layers ~= nil and #attrs.layers == 0 then
    return false
  end
  return nil
end
`

func TestScript_Validate(t *testing.T) {
	s, err := NewScript(zoomScript)
	require.NoError(t, err)
	defer s.Close()

	tests := []struct {
		name    string
		attrs   map[string]any
		wantMsg string
	}{
		{"valid", map[string]any{"zoom": 3, "layers": []any{"roads"}}, ""},
		{"missing", map[string]any{}, "zoom is required"},
		{"out of range", map[string]any{"zoom": 21.5}, "zoom out of range"},
		{"false result", map[string]any{"zoom": 1, "layers": []string{}}, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.attrs)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var rej *Rejection
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.wantMsg, rej.Message)
			assert.ErrorIs(t, err, ErrRejected)
		})
	}
}

func TestNewScript_Errors(t *testing.T) {
	_, err := NewScript("function validate(")
	assert.Error(t, err)

	_, err = NewScript("x = 1")
	assert.ErrorIs(t, err, ErrNoValidateFunc)
}

func TestScript_NoFileAccess(t *testing.T) {
	s, err := NewScript(`
function validate(attrs)
  return dofile("/etc/passwd")
end
`)
	require.NoError(t, err)
	defer s.Close()

	err = s.Validate(map[string]any{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestScript_Timeout(t *testing.T) {
	s, err := NewScript(`
function validate(attrs)
  while true do end
end
`, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Validate(map[string]any{}))
}

func TestScript_CyclicAttributes(t *testing.T) {
	s, err := NewScript(`
function validate(attrs)
  if attrs.node.self.self.id ~= 7 then return "map cycle lost" end
  if attrs.ring[1][1][2] ~= "tail" then return "slice cycle lost" end
  if attrs.node.self ~= attrs.node then return "table not shared" end
end
`)
	require.NoError(t, err)
	defer s.Close()

	node := map[string]any{"id": 7}
	node["self"] = node
	ring := []any{nil, "tail"}
	ring[0] = ring

	assert.NotPanics(t, func() {
		assert.NoError(t, s.Validate(map[string]any{"node": node, "ring": ring}))
	})
}

func TestScript_PointerCycle(t *testing.T) {
	s, err := NewScript(`function validate(attrs) end`)
	require.NoError(t, err)
	defer s.Close()

	var p any
	p = &p

	assert.NoError(t, s.Validate(map[string]any{"p": p}))
}
