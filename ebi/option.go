// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import "log"

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used by the Controller.
func WithLogger(msg *log.Logger) Option {
	return func(c *Controller) {
		c.msg = msg
	}
}
