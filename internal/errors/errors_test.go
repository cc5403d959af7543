package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		wantCategory Category
		wantSeverity Severity
	}{
		{name: "config", code: ErrCodeConfigInvalid, wantCategory: CategoryConfig, wantSeverity: SeverityError},
		{name: "document", code: ErrCodeDocMissingTitle, wantCategory: CategoryContent, wantSeverity: SeverityError},
		{name: "snapshot missing is a warning", code: ErrCodeSnapshotMissing, wantCategory: CategorySnapshot, wantSeverity: SeverityWarning},
		{name: "snapshot corrupt is a warning", code: ErrCodeSnapshotCorrupt, wantCategory: CategorySnapshot, wantSeverity: SeverityWarning},
		{name: "rebuild failure is fatal", code: ErrCodeRebuildFailed, wantCategory: CategoryInternal, wantSeverity: SeverityFatal},
		{name: "query", code: ErrCodeInvalidQuery, wantCategory: CategoryQuery, wantSeverity: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestInkError_ErrorFormat(t *testing.T) {
	err := New(ErrCodeDocUnreadable, "cannot read file", nil)
	assert.Equal(t, "[ERR_201_DOC_UNREADABLE] cannot read file", err.Error())
}

func TestInkError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(ErrCodeDocUnreadable, cause)
	require.NotNil(t, err)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestInkError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeSnapshotCorrupt, "bad json", nil)
	b := New(ErrCodeSnapshotCorrupt, "different message", nil)
	c := New(ErrCodeSnapshotMissing, "not there", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestDocumentError_CarriesPathDetail(t *testing.T) {
	err := DocumentError(ErrCodeDocMissingTitle, "posts/untitled.mdx", nil)
	require.NotNil(t, err.Details)
	assert.Equal(t, "posts/untitled.mdx", err.Details["path"])
	assert.Equal(t, CategoryContent, err.Category)
}

func TestHelpers_NonInkError(t *testing.T) {
	plain := fmt.Errorf("plain error")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
	assert.False(t, IsFatal(plain))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeRebuildFailed, "nothing indexed", nil)))
	assert.False(t, IsFatal(New(ErrCodeDocTimeout, "slow doc", nil)))
}
