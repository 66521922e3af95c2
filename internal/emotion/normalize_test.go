package emotion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func label(l Label) *Label { return &l }

func payload(scores map[string]*float64) Response {
	return Succeeded(&Payload{EmotionPredictions: []Prediction{{Emotion: scores}}})
}

func TestNormalize_WellFormed(t *testing.T) {
	tests := []struct {
		name     string
		scores   map[string]*float64
		dominant Label
	}{
		{
			name:     "joy dominates",
			scores:   map[string]*float64{"anger": ptr(0.01), "disgust": ptr(0.01), "fear": ptr(0.01), "joy": ptr(0.95), "sadness": ptr(0.01)},
			dominant: Joy,
		},
		{
			name:     "anger dominates",
			scores:   map[string]*float64{"anger": ptr(0.82), "disgust": ptr(0.1), "fear": ptr(0.05), "joy": ptr(0.02), "sadness": ptr(0.3)},
			dominant: Anger,
		},
		{
			name:     "sadness is last in order but largest",
			scores:   map[string]*float64{"anger": ptr(0.1), "disgust": ptr(0.2), "fear": ptr(0.3), "joy": ptr(0.4), "sadness": ptr(0.5)},
			dominant: Sadness,
		},
		{
			name:     "values outside [0,1] pass through unclamped",
			scores:   map[string]*float64{"anger": ptr(-0.5), "disgust": ptr(1.7), "fear": ptr(0), "joy": ptr(0), "sadness": ptr(0)},
			dominant: Disgust,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(payload(tt.scores))
			require.NoError(t, err)
			require.True(t, res.OK())

			for _, l := range Labels {
				got := res.Scores.Score(l)
				require.NotNil(t, got, "score for %s", l)
				assert.Equal(t, *tt.scores[string(l)], *got, "score for %s", l)
			}
			d, ok := res.Scores.Dominant()
			require.True(t, ok)
			assert.Equal(t, tt.dominant, d)
		})
	}
}

func TestNormalize_ScenarioA(t *testing.T) {
	res, err := Normalize(payload(map[string]*float64{
		"anger": ptr(0.01), "disgust": ptr(0.01), "fear": ptr(0.01), "joy": ptr(0.95), "sadness": ptr(0.01),
	}))
	require.NoError(t, err)

	want := ScoreSet{
		Anger: ptr(0.01), Disgust: ptr(0.01), Fear: ptr(0.01), Joy: ptr(0.95), Sadness: ptr(0.01),
		DominantEmotion: label(Joy),
	}
	assert.Equal(t, want, res.Scores)

	b, err := json.Marshal(res.Scores)
	require.NoError(t, err)
	assert.JSONEq(t, `{"anger":0.01,"disgust":0.01,"fear":0.01,"joy":0.95,"sadness":0.01,"dominant_emotion":"joy"}`, string(b))
}

func TestNormalize_SentinelPassThrough(t *testing.T) {
	failure := &UpstreamError{Kind: KindClientRejected, StatusCode: 400}

	res, err := Normalize(Failed(failure))
	require.NoError(t, err)

	assert.False(t, res.OK())
	assert.Same(t, failure, res.Err)
	assert.True(t, res.Scores.IsSentinel())
	assert.Equal(t, Sentinel(), res.Scores)

	b, err := json.Marshal(res.Scores)
	require.NoError(t, err)
	assert.JSONEq(t, `{"anger":null,"disgust":null,"fear":null,"joy":null,"sadness":null,"dominant_emotion":null}`, string(b))
}

func TestNormalize_SentinelWithoutFailureStillReportsError(t *testing.T) {
	res, err := Normalize(Response{})
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindUnavailable, res.Err.Kind)
	assert.True(t, res.Scores.IsSentinel())
}

func TestNormalize_Deterministic(t *testing.T) {
	in := payload(map[string]*float64{
		"anger": ptr(0.2), "disgust": ptr(0.4), "fear": ptr(0.1), "joy": ptr(0.4), "sadness": ptr(0.3),
	})
	first, err := Normalize(in)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNormalize_TieBreaksOnFixedOrder(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]*float64
		want   Label
	}{
		{
			name:   "disgust and joy tie",
			scores: map[string]*float64{"anger": ptr(0.1), "disgust": ptr(0.4), "fear": ptr(0.1), "joy": ptr(0.4), "sadness": ptr(0.1)},
			want:   Disgust,
		},
		{
			name:   "all equal picks anger",
			scores: map[string]*float64{"anger": ptr(0.2), "disgust": ptr(0.2), "fear": ptr(0.2), "joy": ptr(0.2), "sadness": ptr(0.2)},
			want:   Anger,
		},
		{
			name:   "fear and sadness tie",
			scores: map[string]*float64{"anger": ptr(0), "disgust": ptr(0), "fear": ptr(0.7), "joy": ptr(0.1), "sadness": ptr(0.7)},
			want:   Fear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				res, err := Normalize(payload(tt.scores))
				require.NoError(t, err)
				d, _ := res.Scores.Dominant()
				assert.Equal(t, tt.want, d)
			}
		})
	}
}

func TestNormalize_IgnoresExtraSegments(t *testing.T) {
	resp := Succeeded(&Payload{EmotionPredictions: []Prediction{
		{Emotion: map[string]*float64{"anger": ptr(0.9), "disgust": ptr(0), "fear": ptr(0), "joy": ptr(0), "sadness": ptr(0)}},
		{Emotion: map[string]*float64{"anger": ptr(0), "disgust": ptr(0), "fear": ptr(0), "joy": ptr(0.99), "sadness": ptr(0)}},
	}})
	res, err := Normalize(resp)
	require.NoError(t, err)
	d, _ := res.Scores.Dominant()
	assert.Equal(t, Anger, d)
	assert.Equal(t, 0.0, *res.Scores.Joy)
}

func TestNormalize_Malformed(t *testing.T) {
	full := func() map[string]*float64 {
		return map[string]*float64{"anger": ptr(0.1), "disgust": ptr(0.1), "fear": ptr(0.1), "joy": ptr(0.1), "sadness": ptr(0.1)}
	}
	missingJoy := full()
	delete(missingJoy, "joy")
	nullFear := full()
	nullFear["fear"] = nil

	tests := []struct {
		name string
		resp Response
	}{
		{name: "no prediction segment", resp: Succeeded(&Payload{})},
		{name: "empty prediction list", resp: Succeeded(&Payload{EmotionPredictions: []Prediction{}})},
		{name: "segment without emotion map", resp: Succeeded(&Payload{EmotionPredictions: []Prediction{{}}})},
		{name: "missing label", resp: payload(missingJoy)},
		{name: "null label", resp: payload(nullFear)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.resp)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, Result{}, res)
		})
	}
}

func TestPayloadDecodesUpstreamShape(t *testing.T) {
	raw := `{
		"emotionPredictions": [{
			"emotion": {"anger": 0.0132, "disgust": 0.0021, "fear": 0.0093, "joy": 0.9680, "sadness": 0.0497},
			"target": "",
			"emotionMentions": []
		}],
		"producerId": {"name": "Ensemble Aggregated Emotion Workflow", "version": "0.0.1"}
	}`
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	res, err := Normalize(Succeeded(&p))
	require.NoError(t, err)
	d, _ := res.Scores.Dominant()
	assert.Equal(t, Joy, d)
	assert.Equal(t, 0.968, *res.Scores.Joy)
}

func TestPayloadNullScoreIsMalformed(t *testing.T) {
	raw := `{"emotionPredictions":[{"emotion":{"anger":null,"disgust":0.1,"fear":0.1,"joy":0.1,"sadness":0.1}}]}`
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	_, err := Normalize(Succeeded(&p))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
