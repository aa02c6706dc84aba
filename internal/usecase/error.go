package usecase

import "errors"

// ErrReconciliationRequired marks cases whose remote record could not be
// updated after work already happened (files fetched or uploaded). The
// record's status no longer reflects reality and needs operator attention;
// retrying automatically could duplicate work.
var ErrReconciliationRequired = errors.New("case record needs manual reconciliation")
