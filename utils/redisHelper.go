package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/gigtally/tally_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, obj, GetCacheLifespan())
}

// retrieve instance; (nil, nil) means cache miss
func RetrieveRedis[T any](id int) (*T, error) {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	var result T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

func RemoveRedis[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

/* Recent projects */

// Recent-projects is a small, capped per-user list used by the entry form to
// pre-rank project suggestions. Presentation convenience only: the
// reconciliation engine never reads it.

const recentProjectsMax = 5

func recentProjectsKey(userId string) string {
	return "RecentProjects:" + userId
}

func PushRecentProject(userId string, projectId int) error {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return nil
	}
	ctx := config.GetRedisContext()
	key := recentProjectsKey(userId)
	if err := rdb.LRem(ctx, key, 0, projectId).Err(); err != nil {
		return err
	}
	if err := rdb.LPush(ctx, key, projectId).Err(); err != nil {
		return err
	}
	return rdb.LTrim(ctx, key, 0, recentProjectsMax-1).Err()
}

func GetRecentProjects(userId string) ([]int, error) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return nil, nil
	}
	values, err := rdb.LRange(config.GetRedisContext(), recentProjectsKey(userId), 0, recentProjectsMax-1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, convErr := strconv.Atoi(v)
		if convErr != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
