package v1

import (
	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
)

type V1 struct {
	res    usecase.ResourceUseCase
	logger logger.Interface
}
