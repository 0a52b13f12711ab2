// internal/functions/users/manage-users/handler.go
package manageusers

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/common/validation"
	"byteplus-functions/internal/identity"
	"byteplus-functions/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const HandlerName = "users.manage-users"

// SESService is the email surface used for the welcome mail, kept narrow
// for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	store     store.DocumentStore
	identity  identity.Provider
	sesClient SESService
}

type HandlerOptions struct {
	Config   *Config
	Logger   logger.Logger
	Store    store.DocumentStore
	Identity identity.Provider
	SES      SESService
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", HandlerName, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s requires a document store", HandlerName)
	}
	if opts.Identity == nil {
		return nil, fmt.Errorf("%s requires an identity provider", HandlerName)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:    cfg,
		logger:    loggerInstance.WithFields(map[string]interface{}{"handler": HandlerName}),
		store:     opts.Store,
		identity:  opts.Identity,
		sesClient: opts.SES,
	}, nil
}

// ==========================
// Create
// ==========================

// ExecuteCreate provisions an identity-provider account and the matching
// user record. Admin-gated: the gate runs before any validation so a
// non-admin caller causes no provider or store traffic at all.
func (h *Handler) ExecuteCreate(ctx context.Context, callerUID string, args map[string]interface{}) (*CreateOutput, error) {
	if err := h.requireAdmin(ctx, callerUID); err != nil {
		return nil, err
	}

	input, err := parseCreateArgs(args)
	if err != nil {
		return nil, err
	}

	account, err := h.identity.CreateAccount(ctx, identity.NewAccount{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.Name,
	})
	if err != nil {
		return nil, translateIdentityError(err)
	}

	err = h.store.Create(ctx, store.UsersCollection, account.UID, map[string]interface{}{
		"name":          input.Name,
		"email":         input.Email,
		"role":          input.Role,
		"status":        StatusActive,
		"emailVerified": true,
		"createdAt":     store.ServerTimestamp,
		"createdBy":     callerUID,
	})
	if err != nil {
		// The provider account exists without a matching record at this
		// point; the caller has the uid and can retry or delete.
		h.logger.Error("user record write failed after account creation", map[string]interface{}{
			"uid":   account.UID,
			"error": err.Error(),
		})
		return nil, errors.NewInternalError("document store", err)
	}

	output := &CreateOutput{UID: account.UID}

	if h.config.WelcomeEmailEnabled && h.sesClient != nil {
		if err := h.sendWelcomeEmail(ctx, input.Email, input.Name); err != nil {
			h.logger.Warn("welcome email failed", map[string]interface{}{
				"uid":   account.UID,
				"error": err.Error(),
			})
		} else {
			output.WelcomeEmailSent = true
		}
	}

	h.logger.Info("user created", map[string]interface{}{
		"uid":       account.UID,
		"role":      input.Role,
		"createdBy": callerUID,
	})
	return output, nil
}

func parseCreateArgs(args map[string]interface{}) (*CreateInput, error) {
	result := validation.ValidateInput(args, GetCreateSchema())
	if !result.Valid {
		return nil, errors.NewInvalidArgumentError(
			"invalid create-user arguments",
			strings.Join(result.GetErrorMessages(), "; "),
		)
	}

	// The schema only bounds the email's length; the format check runs
	// locally so a malformed address never reaches the identity provider.
	email := args["email"].(string)
	if !validation.ValidateEmail(email) {
		return nil, errors.NewInvalidArgumentError(
			"invalid create-user arguments",
			"email: must be a valid email address",
		)
	}

	return &CreateInput{
		Email:    email,
		Password: args["password"].(string),
		Name:     args["name"].(string),
		Role:     args["role"].(string),
	}, nil
}

func translateIdentityError(err error) error {
	switch {
	case stderrors.Is(err, identity.ErrEmailAlreadyExists):
		return errors.NewAlreadyExistsError(err.Error())
	case stderrors.Is(err, identity.ErrInvalidEmail), stderrors.Is(err, identity.ErrWeakPassword):
		return errors.NewInvalidArgumentError("identity provider rejected the account", err.Error())
	default:
		return errors.NewInternalError("identity provider", err)
	}
}

func (h *Handler) sendWelcomeEmail(ctx context.Context, to, name string) error {
	subject := "Welcome to BytePlus"
	body := fmt.Sprintf("Hi %s,\n\nYour BytePlus account is ready. Sign in with this email address to start ordering.\n", name)

	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

// ==========================
// Delete
// ==========================

// ExecuteDelete removes the identity-provider account, every sub-record
// in the user's subcollections, and finally the user record itself. The
// steps are not transactional together: a failure partway leaves partial
// cleanup behind, which is logged rather than rolled back.
func (h *Handler) ExecuteDelete(ctx context.Context, callerUID, userID string) (*DeleteOutput, error) {
	if err := h.requireAdmin(ctx, callerUID); err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, errors.NewInvalidArgumentError("userId is required", "")
	}
	if userID == callerUID {
		return nil, errors.NewInvalidArgumentError("self-deletion is forbidden", userID)
	}

	output := &DeleteOutput{UID: userID, IdentityDeleted: true}

	// A stale reference to an already-removed provider account is not an
	// error: the store-side cleanup still runs.
	if err := h.identity.DeleteAccount(ctx, userID); err != nil {
		if !stderrors.Is(err, identity.ErrUserNotFound) {
			return nil, errors.NewInternalError("identity provider", err)
		}
		h.logger.Warn("identity account already absent", map[string]interface{}{
			"uid": userID,
		})
		output.IdentityDeleted = false
	}

	for _, sub := range userSubcollections {
		path := store.UserSubcollection(userID, sub)

		keys, err := h.store.ListKeys(ctx, path)
		if err != nil {
			h.logger.Error("subcollection listing failed, cleanup is partial", map[string]interface{}{
				"uid":           userID,
				"subcollection": sub,
			})
			return nil, errors.NewInternalError("document store", err)
		}
		if len(keys) == 0 {
			continue
		}

		if err := h.store.BatchDelete(ctx, path, keys); err != nil {
			h.logger.Error("subcollection delete failed, cleanup is partial", map[string]interface{}{
				"uid":           userID,
				"subcollection": sub,
			})
			return nil, errors.NewInternalError("document store", err)
		}
		output.SubrecordsDeleted += len(keys)
	}

	if err := h.store.Delete(ctx, store.UsersCollection, userID); err != nil {
		return nil, errors.NewInternalError("document store", err)
	}

	h.logger.Info("user deleted", map[string]interface{}{
		"uid":               userID,
		"identityDeleted":   output.IdentityDeleted,
		"subrecordsDeleted": output.SubrecordsDeleted,
		"deletedBy":         callerUID,
	})
	return output, nil
}

// ==========================
// Admin Gate
// ==========================

func (h *Handler) requireAdmin(ctx context.Context, callerUID string) error {
	if callerUID == "" {
		return errors.NewUnauthenticatedError("user management requires a verified caller identity")
	}

	fields, exists, err := h.store.Get(ctx, store.UsersCollection, callerUID)
	if err != nil {
		return errors.NewInternalError("document store", err)
	}
	if !exists {
		return errors.NewPermissionDeniedError("caller has no user record")
	}

	role, _ := fields["role"].(string)
	if role != RoleAdmin {
		return errors.NewPermissionDeniedError(fmt.Sprintf("caller role is %q", role))
	}
	return nil
}
