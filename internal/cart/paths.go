// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import "strconv"

// Backend cart endpoints. Each operation kind always uses the same verb:
//
//	GET    /cart                 load
//	POST   /cart/items           create a line {productId, quantite}
//	PUT    /cart/items/{lineID}  set a line's quantity {quantite}
//	DELETE /cart/items/{lineID}  remove a line
//	DELETE /cart                 clear
const (
	pathCart  = "/cart"
	pathItems = "/cart/items"
)

func itemPath(lineID int64) string {
	return pathItems + "/" + strconv.FormatInt(lineID, 10)
}

type createLineBody struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantite"`
}

type quantityBody struct {
	Quantity int `json:"quantite"`
}
