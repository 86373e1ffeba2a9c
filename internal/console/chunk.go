// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

// Chunk splits the blob into pieces of the given size. The last piece may be
// shorter. The concatenation of all pieces is the blob.
func Chunk(blob string, size int) ([]string, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([]string, 0, (len(blob)+size-1)/size)

	for len(blob) > size {
		chunks = append(chunks, blob[:size])
		blob = blob[size:]
	}

	if blob != "" {
		chunks = append(chunks, blob)
	}

	return chunks, nil
}
