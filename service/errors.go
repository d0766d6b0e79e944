// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import "errors"

// ErrNoDevice indicates a trigger without a device serial number.
var ErrNoDevice = errors.New("no device serial number")
