// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package omega

// Flags carries execution limits that apply to every thread of a
// configuration.
type Flags struct {
	// Budget is the maximum call depth of a thread. A call that would
	// descend past it fails with the exhaustion kind.
	Budget int
}

// DefaultFlags matches the limits of the reference interpreter.
func DefaultFlags() Flags {
	return Flags{Budget: 300}
}
