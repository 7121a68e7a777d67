package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	serviceClient  *supabase.Client
	url            string
	key            string
	bucket         string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key, bucket string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
		bucket:         bucket,
	}
}

// WithServiceClient sets the client used for server-side writes that no end
// user owns, such as rating aggregates. It should carry the service role key.
func (su *SupabaseRepo) WithServiceClient(client *supabase.Client) *SupabaseRepo {
	su.serviceClient = client
	return su
}

// systemClient returns the service role client when one is configured,
// otherwise the shared anon client.
func (su *SupabaseRepo) systemClient() *supabase.Client {
	if su.serviceClient != nil {
		return su.serviceClient
	}
	return su.supabaseClient
}

// GetAuthenticatedClient returns a Supabase client with the given access token
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if su.url == "" || su.key == "" {
		// without url/key we cannot build a per-user client, fall back to the shared one
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

// clientFor picks the per-user client when a token is present so row level
// security applies, otherwise the anon client.
func (su *SupabaseRepo) clientFor(accessToken string) (*supabase.Client, error) {
	if accessToken == "" {
		return su.supabaseClient, nil
	}
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}
	return client, nil
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}
