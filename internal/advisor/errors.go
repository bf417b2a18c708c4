package advisor

import (
	"fmt"
	"time"
)

// ThrottleError — советник попросил прийти позже (считанный Retry-After).
// Обертка надежности использует его для умного расчета задержки.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}
