// Copyright 2025 Gameday Labs
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

package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
)

// TimeRecord is the time-to-remediate of one completed game.
type TimeRecord struct {
	SessionID  string
	Category   catalog.Category
	Difficulty catalog.Difficulty
	Elapsed    time.Duration
}

// Recorder persists completion times for the scoreboard.
type Recorder interface {
	Record(ctx context.Context, record TimeRecord) error
}

// LogRecorder writes completion times to the log. The default when no
// scoreboard backend is configured.
type LogRecorder struct {
	log *zap.SugaredLogger
}

// NewLogRecorder creates a LogRecorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{log: logger.For(logger.ComponentGameEngine)}
}

// Record implements the Recorder interface.
func (r *LogRecorder) Record(_ context.Context, record TimeRecord) error {
	r.log.Infof("Session %s completed %s/%s in %s",
		record.SessionID, record.Category, record.Difficulty, record.Elapsed)
	return nil
}
