/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package etcd

import (
	"context"
	"encoding/json"

	"github.com/flowstream/ipfix"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// LoadEnterpriseElements registers every enterprise information element
// found under the "fields/" prefix in etcd into catalog, so that a fleet
// of collector replicas can share enterprise IE definitions a network
// operator has added at runtime (e.g. via an operator UI backed by the
// same etcd cluster) without redeploying the embedded IANA registry.
//
// Unlike TemplateStore, this is a one-shot load rather than a live watch:
// the catalog is read-only after process startup per ipfix.Catalog's
// contract, so there is nothing to converge on an ongoing basis.
func LoadEnterpriseElements(ctx context.Context, client *clientv3.Client, catalog ipfix.Catalog) error {
	res, err := client.Get(ctx, "fields/", clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return err
	}
	for _, kv := range res.Kvs {
		var ie ipfix.InformationElement
		if err := json.Unmarshal(kv.Value, &ie); err != nil {
			return err
		}
		catalog.Register(&ie)
	}
	return nil
}
