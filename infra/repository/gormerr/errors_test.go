package gormerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sellerhub/payouts/infra/repository/gormerr"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, gormerr.Map(nil, ledger.ErrLedgerNotFound))

	err := gormerr.Map(gorm.ErrRecordNotFound, ledger.ErrLedgerNotFound)
	assert.ErrorIs(t, err, ledger.ErrLedgerNotFound)

	wrapped := fmt.Errorf("query ledger: %w", gorm.ErrRecordNotFound)
	err = gormerr.Map(wrapped, ledger.ErrLedgerNotFound)
	assert.ErrorIs(t, err, ledger.ErrLedgerNotFound)

	boom := errors.New("connection reset")
	assert.Equal(t, boom, gormerr.Map(boom, ledger.ErrLedgerNotFound))
}
