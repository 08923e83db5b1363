package oscmanager

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchscenes/logger"
)

type recorder struct {
	messages []*osc.Message
}

func (r *recorder) handle(msg *osc.Message) {
	r.messages = append(r.messages, msg)
}

func marshal(t *testing.T, p osc.Packet) []byte {
	t.Helper()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestRouterRegisterValidation(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)

	tests := []struct {
		address string
		valid   bool
	}{
		{"/scene1", true},
		{"/scene1/name", true},
		{"scene1", false},
		{"", false},
		{"/scene*", false},
		{"/scene?", false},
		{"/scene{1,2}", false},
		{"/scene 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := r.Register(tt.address, func(*osc.Message) {})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAddress)
			}
		})
	}

	assert.Error(t, r.Register("/nil", nil))
}

func TestRouterDuplicateRegistrationReplaces(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)
	first, second := &recorder{}, &recorder{}

	require.NoError(t, r.Register("/scene1", first.handle))
	require.NoError(t, r.Register("/scene1", second.handle))
	assert.Equal(t, 1, r.Addresses())

	r.Dispatch(osc.NewMessage("/scene1", float32(1)))

	assert.Empty(t, first.messages)
	assert.Len(t, second.messages, 1)
}

func TestRouterDispatchRawExactMatch(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)
	scene1, scene12 := &recorder{}, &recorder{}
	require.NoError(t, r.Register("/scene1", scene1.handle))
	require.NoError(t, r.Register("/scene12", scene12.handle))

	r.DispatchRaw(marshal(t, osc.NewMessage("/scene1", float32(1))))
	r.DispatchRaw(marshal(t, osc.NewMessage("/scene1/name", "x")))
	r.DispatchRaw(marshal(t, osc.NewMessage("/unknown", int32(3))))

	require.Len(t, scene1.messages, 1)
	assert.Empty(t, scene12.messages)
	assert.Equal(t, []interface{}{float32(1)}, scene1.messages[0].Arguments)
}

func TestRouterDispatchRawDropsMalformed(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)
	rec := &recorder{}
	require.NoError(t, r.Register("/scene1", rec.handle))

	valid := marshal(t, osc.NewMessage("/scene1", float32(1)))

	garbage := [][]byte{
		nil,
		{},
		[]byte("not osc at all"),
		[]byte("#bundle"),
		valid[:5],
		valid[:len(valid)-2],
	}
	for _, data := range garbage {
		assert.NotPanics(t, func() { r.DispatchRaw(data) })
	}
	assert.Empty(t, rec.messages, "no handler runs for malformed input")

	r.DispatchRaw(valid)
	assert.Len(t, rec.messages, 1)
}

func TestRouterDispatchBundle(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)
	rec := &recorder{}
	require.NoError(t, r.Register("/scene1", rec.handle))
	require.NoError(t, r.Register("/scene2", rec.handle))

	inner := osc.NewBundle(time.Now())
	require.NoError(t, inner.Append(osc.NewMessage("/scene2", float32(1))))

	outer := osc.NewBundle(time.Now())
	require.NoError(t, outer.Append(osc.NewMessage("/scene1", float32(1))))
	require.NoError(t, outer.Append(inner))

	r.Dispatch(outer)

	require.Len(t, rec.messages, 2)
	assert.Equal(t, "/scene1", rec.messages[0].Address)
	assert.Equal(t, "/scene2", rec.messages[1].Address)
}

func TestRouterFallback(t *testing.T) {
	r := NewRouter(logger.NewNop(), nil)
	exact, other := &recorder{}, &recorder{}
	require.NoError(t, r.Register("/scene1", exact.handle))

	r.DispatchRaw(marshal(t, osc.NewMessage("/unknown", float32(1))))
	assert.Empty(t, other.messages, "unmatched messages are dropped without a fallback")

	r.SetFallback(other.handle)
	r.DispatchRaw(marshal(t, osc.NewMessage("/unknown", float32(1))))
	r.DispatchRaw(marshal(t, osc.NewMessage("/scene1", float32(1))))

	require.Len(t, other.messages, 1)
	assert.Equal(t, "/unknown", other.messages[0].Address)
	assert.Len(t, exact.messages, 1, "registered addresses bypass the fallback")

	r.SetFallback(nil)
	r.DispatchRaw(marshal(t, osc.NewMessage("/unknown")))
	assert.Len(t, other.messages, 1)
}
