// internal/service/checkout/infrastructure/yaml_flow_repository.go
package infrastructure

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/checkout/domain"
)

// flowsFile 是流程配置文件的顶层结构。
type flowsFile struct {
	Flows []domain.FlowConfig `yaml:"flows"`
}

// LoadFlowsFromYAML 读取流程配置文件，并对每个流程做结构校验。
func LoadFlowsFromYAML(path string) ([]domain.FlowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read flows file %s", path)
	}
	return ParseFlowsYAML(data)
}

func ParseFlowsYAML(data []byte) ([]domain.FlowConfig, error) {
	var file flowsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse flows yaml")
	}
	for _, f := range file.Flows {
		if err := f.Validate(); err != nil {
			return nil, errors.Wrapf(err, "flow %q", f.ID)
		}
	}
	return file.Flows, nil
}

// ImportFlows 把文件中的流程写入仓储，返回实际写入的数量。
// overwrite 为 false 时跳过仓储中已存在的 ID，后台保存过的修改不会在重启时被文件覆盖。
func ImportFlows(ctx context.Context, repo domain.FlowRepository, path string, overwrite bool) (int, error) {
	flows, err := LoadFlowsFromYAML(path)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range flows {
		if !overwrite {
			_, err := repo.FindByID(ctx, flows[i].ID)
			if err == nil {
				logger.Ctx(ctx).Debug().Str("flow_id", flows[i].ID).Msg("flow already stored, skipping import")
				continue
			}
			if !errors.Is(err, domain.ErrFlowNotFound) {
				return imported, errors.Wrapf(err, "failed to check flow %q", flows[i].ID)
			}
		}
		if err := repo.Save(ctx, &flows[i]); err != nil {
			return imported, errors.Wrapf(err, "failed to import flow %q", flows[i].ID)
		}
		imported++
	}
	logger.Ctx(ctx).Info().Int("count", imported).Int("in_file", len(flows)).Str("file", path).Msg("Imported checkout flows")
	return imported, nil
}
