/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package command

import (
	"context"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/session"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
)

// StartApiServer opens a session with the configured device and serves the API until ctx is done
func StartApiServer(ctx context.Context, cfg *config.Config) error {
	s, err := session.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Error("Failed to close session %s: %s", s.ID, err)
		}
	}()

	info := api.SessionInfo{ID: s.ID, Device: cfg.Name, Schema: s.Schema.Source}
	server, err := api.NewApiServer(ctx, cfg, info, s)
	if err != nil {
		return err
	}
	return server.Run()
}
