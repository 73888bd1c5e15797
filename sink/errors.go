package sink

import "errors"

// ErrPublish wraps every failure of a sink to store or forward a record.
var ErrPublish = errors.New("sink publish failed")
