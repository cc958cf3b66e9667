package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorServiceNotReady = errors.New("service not ready")
