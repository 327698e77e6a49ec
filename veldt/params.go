// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package veldt

// Constants of the Veldt protocol.
const (
	// EpochLength default length of a reward epoch in seconds.
	EpochLength uint64 = 24 * 60 * 60

	// UnstakeDelay default delay before an unstake request matures, in seconds.
	UnstakeDelay uint64 = 7 * 24 * 60 * 60
)

// Keys of the governance params.
var (
	KeyExecutorAddress = BytesToBytes32([]byte("executor"))
	KeyPaused          = BytesToBytes32([]byte("paused"))
	KeyStartTime       = BytesToBytes32([]byte("start-time"))
	KeyEpochLength     = BytesToBytes32([]byte("epoch-length"))
	KeyUnstakeDelay    = BytesToBytes32([]byte("unstake-delay"))
)
