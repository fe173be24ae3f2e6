package handler

import (
    "github.com/gin-gonic/gin/binding"
    "github.com/go-playground/validator/v10"

    "github.com/boehs/truthsocial/internal/model"
    "github.com/boehs/truthsocial/internal/repository"
    "github.com/boehs/truthsocial/internal/service"
)

// Handler HTTP 处理器集合
type Handler struct {
    relService service.RelationshipService
    publisher  *service.Publisher
    notifRepo  repository.NotificationRepository
}

func New(relService service.RelationshipService, publisher *service.Publisher, notifRepo repository.NotificationRepository) *Handler {
    registerValidations()
    return &Handler{relService: relService, publisher: publisher, notifRepo: notifRepo}
}

// registerValidations 在 gin 的 validator 引擎上挂可见性枚举校验
func registerValidations() {
    v, ok := binding.Validator.Engine().(*validator.Validate)
    if !ok {
        return
    }
    _ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
        switch model.Visibility(fl.Field().String()) {
        case model.VisibilityPublic, model.VisibilityUnlisted, model.VisibilityPrivate,
            model.VisibilityDirect, model.VisibilityLimited, model.VisibilityGroup, model.VisibilitySelf:
            return true
        }
        return false
    })
}
