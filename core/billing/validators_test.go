package billing_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/wazazi/core/billing"
)

// payments arrive concurrently; validation must not touch shared state.
func Test_NewPayment_Validate_concurrent(t *testing.T) {
	parentID := uuid.New().String()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			np := billing.NewPayment{
				ParentID:      parentID,
				Amount:        50,
				Category:      billing.Categories[i%len(billing.Categories)],
				PaymentMethod: billing.Methods[i%len(billing.Methods)],
			}
			errs[i] = np.Validate()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, i)
	}
}
