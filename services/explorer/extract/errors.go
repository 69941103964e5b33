// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import "errors"

var (
	// ErrFileTooLarge is returned when content exceeds the extractor's
	// size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size for extraction")

	// ErrInvalidContent is returned for content that is not valid
	// UTF-8.
	ErrInvalidContent = errors.New("file content is not valid UTF-8")

	// ErrUnsupportedFile is returned by the registry when no extractor
	// claims a file's extension.
	ErrUnsupportedFile = errors.New("no extractor registered for file")
)
