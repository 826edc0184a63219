// SPDX-License-Identifier: EPL-2.0

// Package stream provides producers fed by the application instead of a
// device or a file.
//
// A PushStream is written to by the application:
//
//	ps, _ := stream.NewPushStream(audio.DefaultFormat)
//	src, _ := speechsdk.FromStream(ps)
//	go func() {
//		defer ps.Close()
//		ps.Write(pcm)
//	}()
//
// A PullCallback is asked for data whenever the source needs more.
package stream
