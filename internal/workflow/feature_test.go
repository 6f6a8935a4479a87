package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"top100/internal/models"
	"top100/internal/verification"
)

func savedFlow(t *testing.T, f *fixture) *FeatureFlow {
	t.Helper()
	edit := verified(t, f)
	_, err := edit.Save(context.Background(), Changes{})
	require.NoError(t, err)
	flow, err := edit.FeatureStep()
	require.NoError(t, err)
	return flow
}

func validInput() FeatureInput {
	return FeatureInput{
		WantsFeatured:  "yes",
		HasArticle:     false,
		ContactEmail:   "jane@example.com",
		WhatsappNumber: "+2348000000000",
	}
}

func TestFeatureFlow_DeclineRedirectsWithoutPersisting(t *testing.T) {
	f := newFixture()
	flow := savedFlow(t, f)

	out, err := flow.Submit(context.Background(), FeatureInput{WantsFeatured: "no"})
	require.NoError(t, err)
	assert.Nil(t, out.Request)
	assert.Equal(t, "https://top100.example.com/awardees/jane-doe", out.RedirectURL)
	assert.Zero(t, f.requests.count())
}

func TestFeatureFlow_RequiresChoice(t *testing.T) {
	f := newFixture()
	flow := savedFlow(t, f)

	for _, choice := range []string{"", "maybe"} {
		in := validInput()
		in.WantsFeatured = choice
		_, err := flow.Submit(context.Background(), in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "wants_featured", verr.Field)
	}
	assert.Zero(t, f.requests.count())
}

func TestFeatureFlow_ValidationBlocksSubmission(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FeatureInput)
		field  string
	}{
		{"missing email", func(in *FeatureInput) { in.ContactEmail = "" }, "contact"},
		{"missing whatsapp", func(in *FeatureInput) { in.WhatsappNumber = "  " }, "contact"},
		{"missing both with article", func(in *FeatureInput) {
			in.HasArticle = true
			in.ArticleContent = "My story"
			in.ContactEmail = ""
			in.WhatsappNumber = ""
		}, "contact"},
		{"email without at sign", func(in *FeatureInput) { in.ContactEmail = "jane.example.com" }, "contact_email"},
		{"article without content", func(in *FeatureInput) {
			in.HasArticle = true
			in.ArticleContent = "   "
		}, "article_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			flow := savedFlow(t, f)

			in := validInput()
			tt.mutate(&in)
			_, err := flow.Submit(context.Background(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, f.requests.count())
		})
	}
}

func TestFeatureFlow_CreatesPendingRequest(t *testing.T) {
	f := newFixture()
	flow := savedFlow(t, f)

	out, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, out.Request)

	fr := out.Request
	assert.Equal(t, models.FeaturePending, fr.Status)
	assert.Nil(t, fr.PaymentStatus)
	assert.Nil(t, fr.ArticleContent)
	assert.True(t, fr.NeedsArticleWritten)
	assert.False(t, fr.HasOwnArticle)
	assert.Equal(t, int64(50000), fr.Amount)
	assert.Equal(t, "USD", fr.Currency)
	assert.Equal(t, "Jane Doe", fr.AwardeeName)
	require.NotNil(t, fr.AwardeeID)
	assert.Equal(t, f.profile.ID, *fr.AwardeeID)
	assert.Equal(t, "https://top100.example.com/awardees/jane-doe", out.RedirectURL)
}

func TestFeatureFlow_OwnArticle(t *testing.T) {
	f := newFixture()
	flow := savedFlow(t, f)

	in := validInput()
	in.HasArticle = true
	in.ArticleContent = "  How we built the clinic.  "

	out, err := flow.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Request.ArticleContent)
	assert.Equal(t, "How we built the clinic.", *out.Request.ArticleContent)
	assert.False(t, out.Request.NeedsArticleWritten)
}

func TestFeatureFlow_NotIdempotent(t *testing.T) {
	f := newFixture()
	flow := savedFlow(t, f)

	first, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)
	second, err := flow.Submit(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, 2, f.requests.count())
	assert.NotEqual(t, first.Request.ID, second.Request.ID)
}

func TestFeatureFlow_FailureIsRetryable(t *testing.T) {
	f := newFixture()
	f.requests.err = errBackend
	flow := savedFlow(t, f)

	_, err := flow.Submit(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrSubmitFailed)

	f.requests.err = nil
	_, err = flow.Submit(context.Background(), validInput())
	assert.NoError(t, err)
}

func TestFeatureFlow_ConcurrentDuplicateRejected(t *testing.T) {
	f := newFixture()
	f.requests.block = make(chan struct{})
	f.requests.entered = make(chan struct{}, 1)
	flow := savedFlow(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background(), validInput())
		done <- err
	}()
	<-f.requests.entered

	// A second flow for the same awardee shares the guard.
	other := f.wf.FeatureFlow(f.profile)
	_, err := other.Submit(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(f.requests.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.requests.count())
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()

	for _, policyCase := range []struct {
		name        string
		policy      verification.Policy
		caseVariant bool
	}{
		{"exact policy rejects case variant", verification.PolicyExact, false},
		{"trimmed policy accepts case variant", verification.PolicyTrimmed, true},
	} {
		t.Run(policyCase.name, func(t *testing.T) {
			f := newFixture()
			f.verifier.policy = policyCase.policy
			edit := f.wf.Begin(f.profile)

			res, err := edit.Verify(ctx, "jane@example.com")
			require.NoError(t, err)
			assert.True(t, res.Verified)

			res, err = edit.Verify(ctx, "JANE@example.com")
			require.NoError(t, err)
			assert.Equal(t, policyCase.caseVariant, res.Verified)

			_, err = edit.Save(ctx, Changes{Headline: "Policy Fellow"})
			require.NoError(t, err)
			u := f.profiles.updates[0]
			assert.Equal(t, "Policy Fellow", *u.Headline)
			assert.Equal(t, "https://cdn/old.png", *u.AvatarURL)

			flow, err := edit.FeatureStep()
			require.NoError(t, err)
			out, err := flow.Submit(ctx, FeatureInput{
				WantsFeatured:  "yes",
				HasArticle:     false,
				ContactEmail:   "jane@example.com",
				WhatsappNumber: "+234...",
			})
			require.NoError(t, err)
			assert.True(t, out.Request.NeedsArticleWritten)
			assert.Nil(t, out.Request.ArticleContent)
			assert.Equal(t, models.FeaturePending, out.Request.Status)
		})
	}
}
