//go:build zmq4

package main

import _ "github.com/workspace-9/zsock/engine/zmq4"
