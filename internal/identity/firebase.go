package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"greenhub-web-go/internal/config"
)

// InitFirebaseAuth initializes the Firebase Admin SDK and returns its Auth
// client, used to verify ID tokens presented as bearer credentials.
//
// Credentials resolve in order: a service account file path, a base64
// encoded service account JSON blob, then Application Default Credentials.
func InitFirebaseAuth(ctx context.Context, appConfig *config.Config) (*auth.Client, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebaseAuth: appConfig cannot be nil")
	}

	var credsOption option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials file does not exist: %s", appConfig.GoogleApplicationCredentials)
		}
		credsOption = option.WithCredentialsFile(appConfig.GoogleApplicationCredentials)
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		credsOption = option.WithCredentialsJSON(decodedJSON)
	default:
		// Fall through to Application Default Credentials.
	}

	firebaseConfig := &firebase.Config{ProjectID: appConfig.FirebaseProjectID}

	var app *firebase.App
	var err error
	if credsOption != nil {
		app, err = firebase.NewApp(ctx, firebaseConfig, credsOption)
	} else {
		app, err = firebase.NewApp(ctx, firebaseConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	return authClient, nil
}
